package models

import (
	"testing"
	"time"
)

func TestSessionRecord(t *testing.T) {
	now := time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)

	tc := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", time.Minute, false},
		{"just under a day", 24*time.Hour - time.Second, false},
		{"exactly a day", 24 * time.Hour, true},
		{"stale", 48 * time.Hour, true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			r := SessionRecord{UserID: "u1", Timestamp: now.Add(-tt.age)}
			if got := r.Expired(now, 24*time.Hour); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChatStateResult(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		s := ChatState{Mood: "happy", PlaylistURL: "https://open.spotify.com/playlist/abc"}
		r, ok := s.Result()
		if !ok {
			t.Fatal("expected complete result")
		}
		if r.Mood != "happy" {
			t.Errorf("expected mood happy, got %s", r.Mood)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		s := ChatState{Mood: "happy"}
		if _, ok := s.Result(); ok {
			t.Error("result without playlist should be incomplete")
		}
	})

	t.Run("blank mood", func(t *testing.T) {
		s := ChatState{Mood: "  ", PlaylistURL: "x"}
		if _, ok := s.Result(); ok {
			t.Error("blank mood should be incomplete")
		}
	})
}

func TestMessage(t *testing.T) {
	if !NewUserMessage("hi").IsUser() {
		t.Error("user message should report IsUser")
	}
	if NewAssistantMessage("hello").IsUser() {
		t.Error("assistant message should not report IsUser")
	}
}
