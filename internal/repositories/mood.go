package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// MoodRepository caches the last [models.MoodResult] per identity.
type MoodRepository struct {
	db *sql.DB
}

// NewMoodRepository creates a new [MoodRepository] with the given database connection
func NewMoodRepository(db *sql.DB) *MoodRepository {
	return &MoodRepository{db: db}
}

// Put stores result for result.UserID, replacing any previous entry.
func (r *MoodRepository) Put(ctx context.Context, result models.MoodResult) error {
	if result.UserID == "" {
		return fmt.Errorf("%w: empty user id", shared.ErrInvalidInput)
	}
	if !result.Complete() {
		return fmt.Errorf("%w: mood and playlist url are required", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO mood_results (user_id, mood, playlist_url, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			mood = excluded.mood,
			playlist_url = excluded.playlist_url,
			created_at = excluded.created_at
	`

	_, err := exec(ctx, r.db, query, result.UserID, result.Mood, result.PlaylistURL, toMillis(result.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to store mood result: %w", err)
	}
	return nil
}

// Get returns the cached result for userID or an error wrapping [shared.ErrNotFound].
func (r *MoodRepository) Get(ctx context.Context, userID string) (*models.MoodResult, error) {
	result := models.MoodResult{UserID: userID}
	var created int64

	err := r.db.QueryRowContext(ctx,
		"SELECT mood, playlist_url, created_at FROM mood_results WHERE user_id = ?", userID,
	).Scan(&result.Mood, &result.PlaylistURL, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mood result for %s: %w", userID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mood result: %w", err)
	}

	result.CreatedAt = fromMillis(created)
	return &result, nil
}

// Delete removes the cached result for userID.
func (r *MoodRepository) Delete(ctx context.Context, userID string) error {
	if _, err := exec(ctx, r.db, "DELETE FROM mood_results WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete mood result: %w", err)
	}
	return nil
}
