// Package scoring derives totals and winners from a game's rounds.
// Everything here is pure; results are recomputed on every call.
package scoring

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jason-s-yu/scorekeeper/internal/models"
)

// ErrUnknownPlayer is returned when a round carries a score for a player id
// that is not seated in the game.
var ErrUnknownPlayer = errors.New("score for unknown player")

// PlayerTotal sums playerID's score across rounds in order. Rounds that omit
// the player contribute zero.
func PlayerTotal(rounds []models.Round, playerID string) int {
	total := 0
	for _, r := range rounds {
		total += r.Scores[playerID]
	}
	return total
}

// ValidateScores checks that every key of scores names one of players.
func ValidateScores(players []models.Player, scores map[string]int) error {
	known := make(map[string]struct{}, len(players))
	for _, p := range players {
		known[p.ID] = struct{}{}
	}
	// sorted so the reported id is stable
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
		}
	}
	return nil
}

// Totals returns every player's total keyed by Player.ID. A round that
// scores an unknown player id fails the whole computation.
func Totals(g models.Game) (map[string]int, error) {
	for _, r := range g.Rounds {
		if err := ValidateScores(g.Players, r.Scores); err != nil {
			return nil, fmt.Errorf("round %s: %w", r.ID, err)
		}
	}
	totals := make(map[string]int, len(g.Players))
	for _, p := range g.Players {
		totals[p.ID] = PlayerTotal(g.Rounds, p.ID)
	}
	return totals, nil
}

// Winner returns the player with the highest total. Ties go to the player
// seated first. ok is false when the game has no players.
func Winner(g models.Game) (winner models.Player, ok bool, err error) {
	totals, err := Totals(g)
	if err != nil {
		return models.Player{}, false, err
	}
	best := 0
	for i, p := range g.Players {
		if i == 0 || totals[p.ID] > best {
			winner, best, ok = p, totals[p.ID], true
		}
	}
	return winner, ok, nil
}

// Standing is one row of a scoreboard.
type Standing struct {
	Player models.Player `json:"player"`
	Total  int           `json:"total"`
}

// Standings lists players by total, highest first. Equal totals keep seat order.
func Standings(g models.Game) ([]Standing, error) {
	totals, err := Totals(g)
	if err != nil {
		return nil, err
	}
	out := make([]Standing, len(g.Players))
	for i, p := range g.Players {
		out[i] = Standing{Player: p, Total: totals[p.ID]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total > out[j].Total
	})
	return out, nil
}
