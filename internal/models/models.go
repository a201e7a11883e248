// package models defines the data model shared by the auth coordinator, chat engine and views
package models

import (
	"strings"
	"time"
)

// Role identifies the author of a [Message].
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the chat transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage builds a [RoleUser] message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage builds a [RoleAssistant] message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// IsUser reports whether the message was written by the user.
func (m Message) IsUser() bool { return m.Role == RoleUser }

// SessionRecord is the durable identity record used for optimistic restore.
type SessionRecord struct {
	UserID    string
	Timestamp time.Time
}

// Expired reports whether the record is older than timeout at now.
func (r SessionRecord) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(r.Timestamp) >= timeout
}

// MoodResult is the final mood/playlist pair produced by a chat session.
type MoodResult struct {
	UserID      string    `json:"user_id"`
	Mood        string    `json:"mood"`
	PlaylistURL string    `json:"playlist_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Complete reports whether both the mood and the playlist URL are present.
func (r MoodResult) Complete() bool {
	return strings.TrimSpace(r.Mood) != "" && strings.TrimSpace(r.PlaylistURL) != ""
}

// ChatState is a point-in-time copy of the chat progression state.
//
// IsFinished implies both Mood and PlaylistURL are non-empty.
type ChatState struct {
	Messages         []Message `json:"messages"`
	InteractionCount int       `json:"interaction_count"`
	IsLoading        bool      `json:"is_loading"`
	IsFinished       bool      `json:"is_finished"`
	Mood             string    `json:"mood,omitempty"`
	PlaylistURL      string    `json:"playlist_url,omitempty"`
	Err              error     `json:"-"`
}

// Result returns the mood result held by the state, if any.
func (s ChatState) Result() (MoodResult, bool) {
	r := MoodResult{Mood: s.Mood, PlaylistURL: s.PlaylistURL}
	return r, r.Complete()
}
