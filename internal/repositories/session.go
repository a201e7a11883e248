package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// SessionRepository persists the single [models.SessionRecord].
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save writes the record, replacing any previous identity.
func (r *SessionRepository) Save(ctx context.Context, record models.SessionRecord) error {
	if record.UserID == "" {
		return fmt.Errorf("%w: empty user id", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO session_records (id, user_id, timestamp, updated_at)
		VALUES (1, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			timestamp = excluded.timestamp,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := exec(ctx, r.db, query, record.UserID, toMillis(record.Timestamp)); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}

	return nil
}

// Get returns the stored record or an error wrapping [shared.ErrNotFound].
func (r *SessionRepository) Get(ctx context.Context) (*models.SessionRecord, error) {
	var (
		userID string
		millis int64
	)

	err := r.db.QueryRowContext(ctx, "SELECT user_id, timestamp FROM session_records WHERE id = 1").Scan(&userID, &millis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session record: %w", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session record: %w", err)
	}

	return &models.SessionRecord{UserID: userID, Timestamp: fromMillis(millis)}, nil
}

// Delete removes the record. Deleting an absent record is not an error.
func (r *SessionRepository) Delete(ctx context.Context) error {
	if _, err := exec(ctx, r.db, "DELETE FROM session_records"); err != nil {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}
