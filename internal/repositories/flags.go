package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moodtunes/internal/shared"
)

// FlagRepository stores named flags that expire on their own.
//
// It backs the ephemeral half of the session storage: values survive a process restart within
// one auth flow but not beyond their expiry.
type FlagRepository struct {
	db *sql.DB
}

// NewFlagRepository creates a new [FlagRepository] with the given database connection
func NewFlagRepository(db *sql.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// Set stores value under name until expiresAt.
func (r *FlagRepository) Set(ctx context.Context, name, value string, expiresAt time.Time) error {
	if name == "" {
		return fmt.Errorf("%w: empty flag name", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO ephemeral_flags (name, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`

	if _, err := exec(ctx, r.db, query, name, value, toMillis(expiresAt)); err != nil {
		return fmt.Errorf("failed to set flag %s: %w", name, err)
	}
	return nil
}

// Get returns the value of name if it has not expired at now.
//
// Expired rows are removed on read and reported as [shared.ErrNotFound].
func (r *FlagRepository) Get(ctx context.Context, name string, now time.Time) (string, error) {
	var (
		value     string
		expiresAt int64
	)

	err := r.db.QueryRowContext(ctx, "SELECT value, expires_at FROM ephemeral_flags WHERE name = ?", name).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("flag %s: %w", name, shared.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query flag %s: %w", name, err)
	}

	if toMillis(now) >= expiresAt {
		if err := r.Delete(ctx, name); err != nil {
			return "", err
		}
		return "", fmt.Errorf("flag %s expired: %w", name, shared.ErrNotFound)
	}

	return value, nil
}

// Delete removes name. Deleting an absent flag is not an error.
func (r *FlagRepository) Delete(ctx context.Context, name string) error {
	if _, err := exec(ctx, r.db, "DELETE FROM ephemeral_flags WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete flag %s: %w", name, err)
	}
	return nil
}

// Purge removes every flag expired at now and returns how many were dropped.
func (r *FlagRepository) Purge(ctx context.Context, now time.Time) (int64, error) {
	n, err := exec(ctx, r.db, "DELETE FROM ephemeral_flags WHERE expires_at <= ?", toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("failed to purge flags: %w", err)
	}
	return n, nil
}
