package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/moodtunes/internal/auth"
	"github.com/desertthunder/moodtunes/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin starts a Spotify login through the backend and waits for it to finish.
//
// With the redirect strategy the login URL is printed and the command returns; the login is
// completed later by [Runner.AuthResume].
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if s := strings.ToLower(cmd.String("strategy")); s != "" {
		switch auth.Strategy(s) {
		case auth.StrategyAuto, auth.StrategyPopup, auth.StrategyRedirect:
			r.config.Auth.Strategy = s
		default:
			return fmt.Errorf("%w: unknown strategy %q", shared.ErrInvalidArgument, s)
		}
	}

	app, err := r.open(ctx)
	if err != nil {
		return err
	}

	if snap := app.Auth.Snapshot(); snap.IsAuthenticated {
		return r.writePlain("✓ Already logged in as %s\n", snap.UserID)
	}

	r.logger.Info("starting login", "strategy", r.config.Auth.Strategy)
	if err := app.Auth.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if a := app.Popups.Current(); a != nil && a.Strategy == auth.StrategyRedirect {
		return nil
	}

	r.writePlain("Waiting for Spotify login in your browser...\n")
	if err := app.Auth.Wait(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	return r.writePlain("✓ Logged in as %s\n", app.Auth.UserID())
}

// AuthResume completes a redirect login from the URL the browser landed on.
func (r *Runner) AuthResume(ctx context.Context, cmd *cli.Command) error {
	landed := strings.TrimSpace(cmd.StringArg("url"))
	if landed == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	app, err := r.open(ctx)
	if err != nil {
		return err
	}

	cleaned, err := app.Auth.ResumeRedirect(ctx, landed)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	r.logger.Debug("redirect resumed", "location", cleaned)

	userID := app.Auth.UserID()
	if userID == "" {
		return fmt.Errorf("%w: the URL carries no %s parameter", shared.ErrNotAuthenticated, auth.RedirectParam)
	}
	return r.writePlain("✓ Logged in as %s\n", userID)
}

// sessionStatus is the JSON shape of `auth status`.
type sessionStatus struct {
	UserID        string `json:"user_id,omitempty"`
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error,omitempty"`
}

// AuthStatus restores the stored session, verifies it with the backend and reports the outcome.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx)
	if err != nil {
		return err
	}

	snap := app.Auth.Snapshot()
	status := sessionStatus{
		UserID:        snap.UserID,
		Status:        snap.Status.String(),
		Authenticated: snap.IsAuthenticated,
	}
	if snap.LoginError != nil {
		status.Error = snap.LoginError.Error()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainHeader("Session")
	if !status.Authenticated {
		r.writePlain("Authentication: ✗ Not logged in\n")
		if status.Error != "" {
			r.writePlain("Last error: %s\n", status.Error)
		}
		return r.writePlain("Run 'moodtunes auth login' to connect Spotify.\n")
	}

	r.writePlain("Authentication: ✓ Logged in\n")
	return r.writePlain("User: %s\n", status.UserID)
}

// AuthLogout clears the local session and tells the backend.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	app, err := r.open(ctx)
	if err != nil {
		return err
	}

	app.Auth.Logout(ctx)
	return r.writePlain("✓ Logged out\n")
}
