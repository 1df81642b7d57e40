// cmd/scorekeeper is a command line front end for the games API. Every
// command goes through a session.Manager backed by the HTTP client.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jason-s-yu/scorekeeper/internal/client"
	"github.com/jason-s-yu/scorekeeper/internal/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

const usage = `usage: scorekeeper [flags] <command> [args]

commands:
  list [-tenant] [-user ID]     list games, newest first
  new [-target N] NAME PLAYER...  start a game
  round GAMEID PLAYER=SCORE...  add a round (PLAYER is a name or id)
  edit GAMEID ROUND PLAYER=SCORE...
                                replace a round's scores (ROUND is 1-based or a round id)
  complete GAMEID               mark a game complete
  delete GAMEID                 delete a game
  show GAMEID                   print rounds, totals and the leader

flags:
`

func main() {
	fs := flag.NewFlagSet("scorekeeper", flag.ExitOnError)
	server := fs.String("server", envOr("SCOREKEEPER_SERVER", "http://localhost:8080"), "games API base URL")
	token := fs.String("token", os.Getenv("SCOREKEEPER_TOKEN"), "session token")
	timeout := fs.Duration("timeout", 15*time.Second, "per command timeout")
	verbose := fs.Bool("v", false, "log API calls")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	api := client.New(*server,
		client.WithAuthToken(*token),
		client.WithLogger(logger),
		client.OnUnauthorized(func(status int) {
			logger.Warnf("session rejected with status %d, check -token", status)
		}),
	)
	mgr := session.New(api, session.WithLogger(logger))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := runCommand(ctx, mgr, os.Stdout, fs.Arg(0), fs.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "scorekeeper:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
