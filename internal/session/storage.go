package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/repositories"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// FlagAuthInProgress marks a redirect login that has left the app and not yet come back.
const FlagAuthInProgress = "auth_in_progress"

// Storage is the session storage adapter.
type Storage struct {
	records      *repositories.SessionRepository
	flags        *repositories.FlagRepository
	clock        shared.Clock
	timeout      time.Duration
	ephemeralTTL time.Duration
	logger       *log.Logger
}

// NewStorage builds a [Storage] from the two repositories and the session settings.
func NewStorage(records *repositories.SessionRepository, flags *repositories.FlagRepository, config shared.SessionConfig, clock shared.Clock, logger *log.Logger) *Storage {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Storage{
		records:      records,
		flags:        flags,
		clock:        clock,
		timeout:      config.Timeout,
		ephemeralTTL: config.EphemeralTTL,
		logger:       shared.WithLogger(logger, "component", "session-storage"),
	}
}

// Load returns the stored record and whether it is still locally valid.
//
// An expired record is cleared before returning. A missing record is (nil, false, nil).
func (s *Storage) Load(ctx context.Context) (*models.SessionRecord, bool, error) {
	record, err := s.records.Get(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if record.Expired(s.clock.Now(), s.timeout) {
		s.logger.Info("stored session expired", "user_id", record.UserID, "saved_at", record.Timestamp)
		if err := s.Clear(ctx); err != nil {
			return record, false, err
		}
		return record, false, nil
	}

	return record, true, nil
}

// Save persists userID stamped with the current time.
func (s *Storage) Save(ctx context.Context, userID string) error {
	record := models.SessionRecord{UserID: userID, Timestamp: s.clock.Now()}
	if err := s.records.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.logger.Debug("session saved", "user_id", userID)
	return nil
}

// Clear removes the session record and every ephemeral auth flag.
func (s *Storage) Clear(ctx context.Context) error {
	if err := s.records.Delete(ctx); err != nil {
		return err
	}
	return s.flags.Delete(ctx, FlagAuthInProgress)
}

// MarkAuthInProgress sets the redirect flag for the configured ephemeral TTL.
func (s *Storage) MarkAuthInProgress(ctx context.Context) error {
	return s.flags.Set(ctx, FlagAuthInProgress, "true", s.clock.Now().Add(s.ephemeralTTL))
}

// AuthInProgress reports whether a redirect login is outstanding.
func (s *Storage) AuthInProgress(ctx context.Context) (bool, error) {
	_, err := s.flags.Get(ctx, FlagAuthInProgress, s.clock.Now())
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	default:
		return true, nil
	}
}

// ClearAuthInProgress removes the redirect flag.
func (s *Storage) ClearAuthInProgress(ctx context.Context) error {
	return s.flags.Delete(ctx, FlagAuthInProgress)
}
