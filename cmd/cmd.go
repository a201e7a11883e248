// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for the configuration file and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml populated with defaults",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the Spotify login flow through the backend.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your MoodTunes session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with Spotify",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Login surface: auto, popup or redirect",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "resume",
				Usage: "Finish a redirect login with the URL the browser landed on",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Action: r.AuthResume,
			},
			{
				Name:  "status",
				Usage: "Show the current session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "End the session",
				Action: r.AuthLogout,
			},
		},
	}
}

// chatCommand launches the interactive conversation, or sends one message.
func chatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"tui", "ui"},
		Usage:   "Talk about your day and get a playlist",
		Action:  r.TUI,
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Send a single message and print the reply",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "message"},
				},
				Action: r.ChatSend,
			},
		},
	}
}

// resultCommand prints or exports the last mood result.
func resultCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "result",
		Usage: "Show or export your last mood playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, json or csv",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file (markdown exports take a directory)",
			},
			&cli.BoolFlag{
				Name:  "tracks",
				Usage: "Include track details from Spotify (needs spotify credentials)",
				Value: true,
			},
		},
		Action: r.Result,
	}
}

// resetCommand clears the conversation and the stored result.
func resetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "reset",
		Usage:  "Start over: clear the conversation and the saved result",
		Action: r.Reset,
	}
}
