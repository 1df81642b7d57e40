package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jason-s-yu/scorekeeper/internal/models"
	"github.com/jason-s-yu/scorekeeper/internal/scoring"
	"github.com/jason-s-yu/scorekeeper/internal/session"
)

var errUsage = errors.New("bad usage, run with -h")

func runCommand(ctx context.Context, mgr *session.Manager, out io.Writer, name string, args []string) error {
	switch name {
	case "list":
		return cmdList(ctx, mgr, out, args)
	case "new":
		return cmdNew(ctx, mgr, out, args)
	case "round":
		return cmdRound(ctx, mgr, out, args)
	case "edit":
		return cmdEdit(ctx, mgr, out, args)
	case "complete":
		return cmdComplete(ctx, mgr, out, args)
	case "delete":
		return cmdDelete(ctx, mgr, out, args)
	case "show":
		return cmdShow(ctx, mgr, out, args)
	default:
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}
}

// managerErr turns the manager's error slot into an error.
func managerErr(mgr *session.Manager) error {
	if msg := mgr.Err(); msg != "" {
		return errors.New(msg)
	}
	return nil
}

func cmdList(ctx context.Context, mgr *session.Manager, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	tenant := fs.Bool("tenant", false, "list every game of the tenant")
	user := fs.String("user", "", "with -tenant, only this user's games")
	if err := fs.Parse(args); err != nil {
		return err
	}
	mgr.RefreshGames(ctx, models.ListGamesOptions{TenantWide: *tenant, UserID: *user})
	if err := managerErr(mgr); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDATE\tPLAYERS\tROUNDS\tSTATUS")
	for _, g := range mgr.Games() {
		status := "in progress"
		if g.IsComplete {
			status = "complete"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			g.ID, g.Name, g.Date.Format("2006-01-02 15:04"), len(g.Players), len(g.Rounds), status)
	}
	return tw.Flush()
}

func cmdNew(ctx context.Context, mgr *session.Manager, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	target := fs.Int("target", models.DefaultTargetScore, "target score")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("new needs a name: %w", errUsage)
	}
	err := mgr.StartNewGame(ctx, fs.Arg(0), fs.Args()[1:], *target)
	if errors.Is(err, session.ErrNoPlayers) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%s: %w", mgr.Err(), err)
	}
	g, _ := mgr.CurrentGame()
	fmt.Fprintf(out, "created %s (%s)\n", g.Name, g.ID)
	return nil
}

// selectGame loads the tenant's games and makes gameID current.
func selectGame(ctx context.Context, mgr *session.Manager, gameID string) (models.Game, error) {
	mgr.RefreshGames(ctx, models.ListGamesOptions{TenantWide: true})
	if err := managerErr(mgr); err != nil {
		return models.Game{}, err
	}
	mgr.SelectGame(gameID)
	g, ok := mgr.CurrentGame()
	if !ok {
		return models.Game{}, fmt.Errorf("game %s not found", gameID)
	}
	return g, nil
}

func cmdRound(ctx context.Context, mgr *session.Manager, out io.Writer, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("round needs a game id and at least one score: %w", errUsage)
	}
	g, err := selectGame(ctx, mgr, args[0])
	if err != nil {
		return err
	}
	scores, err := parseScores(g, args[1:])
	if err != nil {
		return err
	}
	if err := mgr.AddRound(ctx, scores); err != nil {
		return fmt.Errorf("%s: %w", mgr.Err(), err)
	}
	g, _ = mgr.CurrentGame()
	fmt.Fprintf(out, "round %d recorded for %s\n", len(g.Rounds), g.Name)
	return nil
}

func cmdEdit(ctx context.Context, mgr *session.Manager, out io.Writer, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("edit needs a game id, a round and at least one score: %w", errUsage)
	}
	g, err := selectGame(ctx, mgr, args[0])
	if err != nil {
		return err
	}
	idx, err := findRound(g, args[1])
	if err != nil {
		return err
	}
	scores, err := parseScores(g, args[2:])
	if err != nil {
		return err
	}
	if err := mgr.EditRound(ctx, g.Rounds[idx].ID, scores); err != nil {
		return fmt.Errorf("%s: %w", mgr.Err(), err)
	}
	fmt.Fprintf(out, "round %d updated for %s\n", idx+1, g.Name)
	return nil
}

// findRound resolves a 1-based round number or a round id to an index.
func findRound(g models.Game, ref string) (int, error) {
	if idx := g.RoundIndex(ref); idx >= 0 {
		return idx, nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(g.Rounds) {
		return 0, fmt.Errorf("no round %q in %s (%d rounds)", ref, g.Name, len(g.Rounds))
	}
	return n - 1, nil
}

// parseScores reads PLAYER=SCORE pairs. PLAYER matches a player id or,
// case-insensitively, a player name.
func parseScores(g models.Game, pairs []string) (map[string]int, error) {
	scores := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		who, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("score %q is not PLAYER=SCORE", pair)
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("score %q: %w", pair, err)
		}
		p, ok := findPlayer(g, who)
		if !ok {
			return nil, fmt.Errorf("no player %q in %s", who, g.Name)
		}
		scores[p.ID] = n
	}
	return scores, nil
}

func findPlayer(g models.Game, who string) (models.Player, bool) {
	if p, ok := g.Player(who); ok {
		return p, true
	}
	for _, p := range g.Players {
		if strings.EqualFold(p.Name, who) {
			return p, true
		}
	}
	return models.Player{}, false
}

func cmdComplete(ctx context.Context, mgr *session.Manager, out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("complete needs a game id: %w", errUsage)
	}
	g, err := selectGame(ctx, mgr, args[0])
	if err != nil {
		return err
	}
	if err := mgr.CompleteGame(ctx); err != nil {
		return fmt.Errorf("%s: %w", mgr.Err(), err)
	}
	fmt.Fprintf(out, "%s is complete\n", g.Name)
	return nil
}

func cmdDelete(ctx context.Context, mgr *session.Manager, out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("delete needs a game id: %w", errUsage)
	}
	if err := mgr.DeleteGame(ctx, args[0]); err != nil {
		return fmt.Errorf("%s: %w", mgr.Err(), err)
	}
	fmt.Fprintf(out, "deleted %s\n", args[0])
	return nil
}

func cmdShow(ctx context.Context, mgr *session.Manager, out io.Writer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("show needs a game id: %w", errUsage)
	}
	g, err := selectGame(ctx, mgr, args[0])
	if err != nil {
		return err
	}

	status := "in progress"
	if g.IsComplete {
		status = "complete"
	}
	fmt.Fprintf(out, "%s (%s) target %d, %s\n\n", g.Name, g.ID, g.TargetScore, status)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	header := "ROUND\t"
	for _, p := range g.Players {
		header += p.Name + "\t"
	}
	fmt.Fprintln(tw, header)
	for i, r := range g.Rounds {
		row := strconv.Itoa(i+1) + "\t"
		for _, p := range g.Players {
			row += strconv.Itoa(r.Scores[p.ID]) + "\t"
		}
		fmt.Fprintln(tw, row)
	}
	row := "TOTAL\t"
	for _, p := range g.Players {
		row += strconv.Itoa(mgr.GetPlayerTotals(p.ID)) + "\t"
	}
	fmt.Fprintln(tw, row)
	if err := tw.Flush(); err != nil {
		return err
	}

	standings, err := scoring.Standings(g)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	for i, st := range standings {
		fmt.Fprintf(out, "%d. %s %d\n", i+1, st.Player.Name, st.Total)
	}

	winner, ok, err := mgr.Winner()
	if err != nil {
		return err
	}
	if ok {
		label := "leader"
		if g.IsComplete {
			label = "winner"
		}
		fmt.Fprintf(out, "%s: %s\n", label, winner.Name)
	}
	return nil
}
