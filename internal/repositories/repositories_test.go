package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	t.Run("Save and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		if err := repo.Save(ctx, models.SessionRecord{UserID: "u1", Timestamp: stamp}); err != nil {
			t.Fatalf("failed to save record: %v", err)
		}

		got, err := repo.Get(ctx)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got.UserID != "u1" {
			t.Errorf("expected user u1, got %s", got.UserID)
		}
		if !got.Timestamp.Equal(stamp) {
			t.Errorf("expected timestamp %v, got %v", stamp, got.Timestamp)
		}
	})

	t.Run("Save replaces identity", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		_ = repo.Save(ctx, models.SessionRecord{UserID: "u1", Timestamp: stamp})
		if err := repo.Save(ctx, models.SessionRecord{UserID: "u2", Timestamp: stamp.Add(time.Hour)}); err != nil {
			t.Fatalf("failed to replace record: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM session_records").Scan(&count); err != nil {
			t.Fatalf("failed to count records: %v", err)
		}
		if count != 1 {
			t.Errorf("expected exactly one record, got %d", count)
		}

		got, _ := repo.Get(ctx)
		if got.UserID != "u2" {
			t.Errorf("expected user u2, got %s", got.UserID)
		}
	})

	t.Run("Get empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewSessionRepository(db).Get(ctx)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSessionRepository(db)
		_ = repo.Save(ctx, models.SessionRecord{UserID: "u1", Timestamp: stamp})

		if err := repo.Delete(ctx); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(ctx); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(ctx); err != nil {
			t.Errorf("second delete should be a no-op, got %v", err)
		}
	})

	t.Run("rejects empty user", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		err := NewSessionRepository(db).Save(ctx, models.SessionRecord{Timestamp: stamp})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestFlagRepository(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Set and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewFlagRepository(db)
		if err := repo.Set(ctx, "auth_in_progress", "true", now.Add(15*time.Minute)); err != nil {
			t.Fatalf("failed to set flag: %v", err)
		}

		v, err := repo.Get(ctx, "auth_in_progress", now)
		if err != nil {
			t.Fatalf("failed to get flag: %v", err)
		}
		if v != "true" {
			t.Errorf("expected true, got %q", v)
		}
	})

	t.Run("expired flag is removed on read", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewFlagRepository(db)
		_ = repo.Set(ctx, "auth_in_progress", "true", now.Add(time.Minute))

		_, err := repo.Get(ctx, "auth_in_progress", now.Add(time.Minute))
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for expired flag, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM ephemeral_flags").Scan(&count); err != nil {
			t.Fatalf("failed to count flags: %v", err)
		}
		if count != 0 {
			t.Errorf("expected expired flag to be deleted, %d remain", count)
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewFlagRepository(db)
		_ = repo.Set(ctx, "f", "a", now.Add(time.Minute))
		_ = repo.Set(ctx, "f", "b", now.Add(time.Hour))

		v, err := repo.Get(ctx, "f", now.Add(30*time.Minute))
		if err != nil {
			t.Fatalf("failed to get flag: %v", err)
		}
		if v != "b" {
			t.Errorf("expected b, got %q", v)
		}
	})

	t.Run("Delete and Purge", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewFlagRepository(db)
		_ = repo.Set(ctx, "old1", "x", now.Add(-time.Minute))
		_ = repo.Set(ctx, "old2", "x", now)
		_ = repo.Set(ctx, "live", "x", now.Add(time.Hour))

		n, err := repo.Purge(ctx, now)
		if err != nil {
			t.Fatalf("failed to purge: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 purged flags, got %d", n)
		}

		if err := repo.Delete(ctx, "live"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(ctx, "live", now); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewFlagRepository(db).Set(ctx, "", "x", now); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestMoodRepository(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)

	t.Run("Put and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMoodRepository(db)
		result := models.MoodResult{
			UserID:      "u1",
			Mood:        "happy",
			PlaylistURL: "https://open.spotify.com/playlist/abc123",
			CreatedAt:   created,
		}
		if err := repo.Put(ctx, result); err != nil {
			t.Fatalf("failed to put result: %v", err)
		}

		got, err := repo.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to get result: %v", err)
		}
		if got.Mood != "happy" || got.PlaylistURL != result.PlaylistURL {
			t.Errorf("unexpected result %+v", got)
		}
		if !got.CreatedAt.Equal(created) {
			t.Errorf("expected created %v, got %v", created, got.CreatedAt)
		}
	})

	t.Run("isolated per identity", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMoodRepository(db)
		_ = repo.Put(ctx, models.MoodResult{UserID: "u1", Mood: "happy", PlaylistURL: "p1", CreatedAt: created})

		if _, err := repo.Get(ctx, "u2"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for other identity, got %v", err)
		}
	})

	t.Run("Put replaces", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMoodRepository(db)
		_ = repo.Put(ctx, models.MoodResult{UserID: "u1", Mood: "happy", PlaylistURL: "p1", CreatedAt: created})
		_ = repo.Put(ctx, models.MoodResult{UserID: "u1", Mood: "calm", PlaylistURL: "p2", CreatedAt: created})

		got, err := repo.Get(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to get result: %v", err)
		}
		if got.Mood != "calm" || got.PlaylistURL != "p2" {
			t.Errorf("expected replaced result, got %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMoodRepository(db)
		_ = repo.Put(ctx, models.MoodResult{UserID: "u1", Mood: "happy", PlaylistURL: "p1", CreatedAt: created})
		if err := repo.Delete(ctx, "u1"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(ctx, "u1"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("rejects incomplete result", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewMoodRepository(db)
		if err := repo.Put(ctx, models.MoodResult{UserID: "u1", Mood: "happy"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if err := repo.Put(ctx, models.MoodResult{Mood: "happy", PlaylistURL: "p"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
