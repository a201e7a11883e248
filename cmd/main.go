package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/moodtunes/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(nil)})

	err := rootCommand(runner).Run(context.Background(), os.Args)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if cerr := runner.Close(ctx); cerr != nil {
		runner.logger.Warn("shutdown incomplete", "error", cerr)
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			runner.logger.Warn("not implemented")
			os.Exit(0)
		}
		runner.logger.Fatalf("application error: %v", err)
	}
}

func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "moodtunes",
		Usage:   "Chat about your mood and get a Spotify playlist to match",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars(shared.EnvPrefix + "CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the configured log level",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}
