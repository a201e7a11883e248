package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodtunes/internal/formatter"
	"github.com/desertthunder/moodtunes/internal/shared"
	"github.com/urfave/cli/v3"
)

// Result prints or exports the last mood result of the current user.
//
// Track details are fetched from Spotify when credentials are configured; a failed lookup only
// drops them from the export.
func (r *Runner) Result(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	app, err := r.authenticated(ctx)
	if err != nil {
		return err
	}

	result, ok := app.Chat.LoadMoodResult(ctx, app.Auth.UserID())
	if !ok {
		return fmt.Errorf("%w: finish a conversation with 'moodtunes chat' first", shared.ErrNoResult)
	}

	export := &formatter.Export{Result: result, Transcript: app.Chat.Snapshot().Messages}
	if cmd.Bool("tracks") && app.Spotify != nil {
		playlist, err := app.Spotify.PlaylistFromURL(ctx, result.PlaylistURL)
		if err != nil {
			r.logger.Warn("could not load playlist tracks", "error", err)
		} else {
			export.Playlist = playlist
		}
	}

	output := cmd.String("output")
	switch {
	case output == "":
		data, err := formatter.Render(export, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil

	case format == formatter.FormatMarkdown:
		written, err := formatter.WriteMarkdownExport(ctx, export, output)
		if err != nil {
			return err
		}
		r.logger.Info("markdown export written", "dir", written.Directory, "files", len(written.Files))
		return r.writePlain("✓ Exported to %s\n", written.Directory)

	default:
		if err := formatter.WriteExport(export, format, output); err != nil {
			return err
		}
		return r.writePlain("✓ Exported to %s\n", output)
	}
}
