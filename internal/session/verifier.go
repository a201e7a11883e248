package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodtunes/internal/services"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// Verification modes.
const (
	ModeSessionInfo = "session-info"
	ModeLegacy      = "legacy"
)

// Backend is the part of [services.BackendClient] the verifier needs.
type Backend interface {
	SessionInfo(ctx context.Context) (*services.SessionInfo, error)
	SessionUser(ctx context.Context, userID string) error
}

// Verifier confirms an identity with the backend.
type Verifier struct {
	backend Backend
	mode    string
	logger  *log.Logger
}

// NewVerifier returns a verifier using mode (see [ModeSessionInfo], [ModeLegacy]). The default is
// [ModeLegacy]: the backend's session cookie lives in the browser that completed OAuth, so a
// cookie-based check from this process cannot succeed.
func NewVerifier(backend Backend, mode string, logger *log.Logger) *Verifier {
	if mode == "" {
		mode = ModeLegacy
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Verifier{backend: backend, mode: mode, logger: shared.WithLogger(logger, "component", "verifier")}
}

// Verify returns nil when the backend confirms userID.
//
// A rejected identity wraps [shared.ErrSessionExpired]; a transport failure wraps [shared.ErrConnection].
func (v *Verifier) Verify(ctx context.Context, userID string) error {
	var err error
	switch v.mode {
	case ModeSessionInfo:
		err = v.verifySessionInfo(ctx, userID)
	default:
		err = v.verifyLegacy(ctx, userID)
	}

	if err != nil {
		v.logger.Info("session check failed", "user_id", userID, "mode", v.mode, "error", err)
		return err
	}
	v.logger.Info("session check passed", "user_id", userID, "mode", v.mode)
	return nil
}

func (v *Verifier) verifySessionInfo(ctx context.Context, userID string) error {
	info, err := v.backend.SessionInfo(ctx)
	if err != nil {
		return classify(err)
	}
	if !info.Authenticated {
		return fmt.Errorf("%w: backend reports no session", shared.ErrSessionExpired)
	}
	if info.UserID != "" && info.UserID != userID {
		return fmt.Errorf("%w: backend session belongs to another user", shared.ErrSessionExpired)
	}
	return nil
}

func (v *Verifier) verifyLegacy(ctx context.Context, userID string) error {
	if err := v.backend.SessionUser(ctx, userID); err != nil {
		return classify(err)
	}
	return nil
}

// classify treats a 4xx answer as a rejected identity; anything else leaves the session recoverable.
func classify(err error) error {
	var apiErr *services.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
	}
	if errors.Is(err, shared.ErrConnection) {
		return err
	}
	return fmt.Errorf("%w: %v", shared.ErrConnection, err)
}
