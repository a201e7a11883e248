package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/moodtunes/internal/formatter"
	"github.com/desertthunder/moodtunes/internal/shared"
	"github.com/urfave/cli/v3"
)

// authenticated opens the app and requires a confirmed session.
func (r *Runner) authenticated(ctx context.Context) (*App, error) {
	app, err := r.open(ctx)
	if err != nil {
		return nil, err
	}
	if app.Auth.UserID() == "" {
		return nil, fmt.Errorf("%w: run 'moodtunes auth login' first", shared.ErrNotAuthenticated)
	}
	return app, nil
}

// ChatSend sends one message and prints the reply. The backend tracks the interaction count,
// so a conversation can be carried across invocations.
func (r *Runner) ChatSend(ctx context.Context, cmd *cli.Command) error {
	content := strings.TrimSpace(cmd.StringArg("message"))
	if content == "" {
		return fmt.Errorf("%w: message", shared.ErrMissingArgument)
	}

	app, err := r.authenticated(ctx)
	if err != nil {
		return err
	}

	before := len(app.Chat.Snapshot().Messages)
	sendErr := app.Chat.SendMessage(ctx, content)

	state := app.Chat.Snapshot()
	for _, msg := range state.Messages[min(before, len(state.Messages)):] {
		if !msg.IsUser() {
			r.writePlain("MoodTunes: %s\n", msg.Content)
		}
	}
	if sendErr != nil {
		return sendErr
	}

	if result, ok := state.Result(); ok {
		r.writePlainln("%s Your %s playlist is ready: %s", formatter.MoodEmoji(result.Mood), result.Mood, result.PlaylistURL)
		return r.writePlain("Run 'moodtunes result' for the details.\n")
	}

	count, threshold := app.Chat.Progress()
	return r.writePlain("(%d/%d interactions)\n", count, threshold)
}

// Reset clears the conversation and the stored result for the current user.
func (r *Runner) Reset(ctx context.Context, cmd *cli.Command) error {
	app, err := r.authenticated(ctx)
	if err != nil {
		return err
	}

	app.Chat.ResetChat(ctx)
	return r.writePlain("✓ Conversation cleared\n")
}
