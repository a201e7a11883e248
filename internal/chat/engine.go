package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodtunes/internal/auth"
	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/services"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// DefaultThreshold is the interaction count that triggers playlist creation.
const DefaultThreshold = 5

// Identity is the view of the auth coordinator the engine depends on.
type Identity interface {
	UserID() string
	Logout(ctx context.Context)
}

// Backend is the part of the backend client used for chat turns and results.
type Backend interface {
	Chat(ctx context.Context, req services.ChatRequest) (*services.ChatResponse, error)
	CreatePlaylist(ctx context.Context, userID string) (*services.PlaylistResponse, error)
	MoodResult(ctx context.Context, userID string) (*services.MoodResultResponse, error)
}

// ResultCache persists the last result per identity.
type ResultCache interface {
	Put(ctx context.Context, result models.MoodResult) error
	Get(ctx context.Context, userID string) (*models.MoodResult, error)
	Delete(ctx context.Context, userID string) error
}

// Engine owns the transcript and drives a conversation towards a playlist.
//
// Sends are serialized by the loading flag. Every response is applied only when the epoch and
// identity it was issued under are still current; ResetChat and identity changes bump the epoch.
type Engine struct {
	identity  Identity
	backend   Backend
	cache     ResultCache
	threshold int
	language  string
	clock     shared.Clock
	logger    *log.Logger

	mu    sync.Mutex
	state models.ChatState
	owner string
	epoch uint64
}

// NewEngine creates an engine. A nil cache disables result persistence.
func NewEngine(identity Identity, backend Backend, cache ResultCache, config shared.ChatConfig, clock shared.Clock, logger *log.Logger) *Engine {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	threshold := config.InteractionThreshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	return &Engine{
		identity:  identity,
		backend:   backend,
		cache:     cache,
		threshold: threshold,
		language:  config.Language,
		clock:     clock,
		logger:    shared.WithLogger(logger, "component", "chat"),
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() models.ChatState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.state
	s.Messages = append([]models.Message(nil), e.state.Messages...)
	return s
}

// Progress returns the interaction count and the threshold it is measured against.
func (e *Engine) Progress() (count, threshold int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.InteractionCount, e.threshold
}

// HandleEvent follows identity changes from the coordinator. A different identity starts a fresh
// conversation; in-flight responses for the old one are dropped.
func (e *Engine) HandleEvent(ev auth.Event) {
	if ev.Kind != auth.EventIdentity {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.UserID == "" {
		e.epoch++
		e.state.IsLoading = false
		return
	}
	if e.owner != "" && e.owner != ev.UserID {
		e.epoch++
		e.state = models.ChatState{}
	}
	e.owner = ev.UserID
}

// turn captures what a response must still match to be applied.
type turn struct {
	epoch  uint64
	userID string
}

func (e *Engine) currentLocked(t turn) bool {
	return e.epoch == t.epoch && e.identity.UserID() == t.userID
}

// SendMessage appends content to the transcript and sends it to the backend.
//
// The user message is kept whatever the outcome. When the reply brings the interaction count to
// the threshold the playlist is created before SendMessage returns.
func (e *Engine) SendMessage(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)

	userID := e.identity.UserID()
	if userID == "" {
		return shared.ErrNotAuthenticated
	}
	if content == "" {
		return shared.ErrEmptyMessage
	}

	e.mu.Lock()
	if e.state.IsLoading {
		e.mu.Unlock()
		return shared.ErrChatBusy
	}
	if e.state.IsFinished {
		e.mu.Unlock()
		return fmt.Errorf("%w: conversation already finished", shared.ErrInvalidInput)
	}
	e.owner = userID
	e.state.Messages = append(e.state.Messages, models.NewUserMessage(content))
	e.state.IsLoading = true
	e.state.Err = nil
	t := turn{epoch: e.epoch, userID: userID}
	e.mu.Unlock()

	e.logger.Debug("sending message", "user_id", userID, "length", len(content))

	resp, err := e.backend.Chat(ctx, services.ChatRequest{Message: content, UserID: userID, Lang: e.language})
	if err != nil {
		return e.fail(ctx, t, err)
	}

	e.mu.Lock()
	if !e.currentLocked(t) {
		e.mu.Unlock()
		e.logger.Debug("dropping stale chat response", "user_id", userID)
		return nil
	}

	if reply := resp.Reply(); reply != "" {
		e.state.Messages = append(e.state.Messages, models.NewAssistantMessage(reply))
	}
	if resp.InteractionCount > e.state.InteractionCount {
		e.state.InteractionCount = resp.InteractionCount
	}
	count := e.state.InteractionCount

	if result := (models.MoodResult{UserID: userID, Mood: resp.Mood, PlaylistURL: resp.PlaylistURL}); result.Complete() {
		e.finishLocked(result)
		e.mu.Unlock()
		e.logger.Info("conversation finished by chat response", "user_id", userID, "mood", result.Mood)
		e.store(ctx, result)
		return nil
	}

	if count < e.threshold {
		e.state.IsLoading = false
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	e.logger.Info("interaction threshold reached", "user_id", userID, "count", count)
	return e.createPlaylist(ctx, t)
}

// createPlaylist runs with the loading flag still set by the turn that triggered it.
func (e *Engine) createPlaylist(ctx context.Context, t turn) error {
	resp, err := e.backend.CreatePlaylist(ctx, t.userID)
	if err != nil {
		if services.StatusCode(err) == http.StatusBadRequest {
			err = fmt.Errorf("%w: %v", shared.ErrInsufficientInteractions, err)
		}
		return e.fail(ctx, t, err)
	}

	result := models.MoodResult{UserID: t.userID, Mood: resp.Mood, PlaylistURL: resp.PlaylistURL}
	if !resp.Success || !result.Complete() {
		return e.fail(ctx, t, fmt.Errorf("%w: incomplete response", shared.ErrPlaylistFailed))
	}

	e.mu.Lock()
	if !e.currentLocked(t) {
		e.mu.Unlock()
		e.logger.Debug("dropping stale playlist response", "user_id", t.userID)
		return nil
	}
	e.finishLocked(result)
	e.mu.Unlock()

	e.logger.Info("playlist created", "user_id", t.userID, "mood", result.Mood, "url", result.PlaylistURL)
	e.store(ctx, result)
	return nil
}

func (e *Engine) finishLocked(result models.MoodResult) {
	e.state.Mood = result.Mood
	e.state.PlaylistURL = result.PlaylistURL
	e.state.IsFinished = true
	e.state.IsLoading = false
}

func (e *Engine) store(ctx context.Context, result models.MoodResult) {
	if e.cache == nil {
		return
	}
	result.CreatedAt = e.clock.Now()
	if err := e.cache.Put(ctx, result); err != nil {
		e.logger.Warn("failed to cache mood result", "error", err)
	}
}

// fail records err for the turn t and returns the error reported to the caller. 401 responses
// end the session through the coordinator.
func (e *Engine) fail(ctx context.Context, t turn, err error) error {
	unauthorized := errors.Is(err, shared.ErrUnauthorized)
	switch {
	case unauthorized:
		err = fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
	case errors.Is(err, shared.ErrInsufficientInteractions), errors.Is(err, shared.ErrPlaylistFailed):
	default:
		err = fmt.Errorf("%w: %v", shared.ErrConnection, err)
	}

	e.mu.Lock()
	stale := !e.currentLocked(t)
	if !stale {
		e.state.IsLoading = false
		e.state.Err = err
	}
	e.mu.Unlock()

	if stale {
		e.logger.Debug("dropping stale failure", "user_id", t.userID, "error", err)
		return nil
	}

	if unauthorized {
		e.logger.Warn("session lost during chat", "user_id", t.userID)
		e.identity.Logout(ctx)
	} else {
		e.logger.Warn("chat request failed", "user_id", t.userID, "error", err)
	}
	return err
}

// LoadMoodResult restores the result for userID when the state holds none. The cache is tried
// first, then the backend. A missing result leaves the state untouched and is not an error.
func (e *Engine) LoadMoodResult(ctx context.Context, userID string) (models.MoodResult, bool) {
	e.mu.Lock()
	if r, ok := e.state.Result(); ok {
		e.mu.Unlock()
		r.UserID = userID
		return r, true
	}
	epoch := e.epoch
	e.mu.Unlock()

	if userID == "" {
		return models.MoodResult{}, false
	}

	result, ok := e.lookup(ctx, userID)
	if !ok {
		return models.MoodResult{}, false
	}

	e.mu.Lock()
	if e.epoch == epoch && !e.state.IsFinished {
		e.state.Mood = result.Mood
		e.state.PlaylistURL = result.PlaylistURL
	}
	e.mu.Unlock()
	return result, true
}

func (e *Engine) lookup(ctx context.Context, userID string) (models.MoodResult, bool) {
	if e.cache != nil {
		cached, err := e.cache.Get(ctx, userID)
		if err == nil && cached.Complete() {
			return *cached, true
		}
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			e.logger.Warn("failed to read cached mood result", "error", err)
		}
	}

	resp, err := e.backend.MoodResult(ctx, userID)
	if err != nil {
		e.logger.Debug("no mood result from backend", "user_id", userID, "error", err)
		return models.MoodResult{}, false
	}

	result := models.MoodResult{UserID: userID, Mood: resp.Mood, PlaylistURL: resp.PlaylistURL}
	if !result.Complete() {
		return models.MoodResult{}, false
	}
	e.store(ctx, result)
	return result, true
}

// ResetChat returns to the initial state and forgets the cached result of the current identity.
func (e *Engine) ResetChat(ctx context.Context) {
	e.mu.Lock()
	e.epoch++
	e.state = models.ChatState{}
	owner := e.owner
	e.mu.Unlock()

	if owner == "" {
		owner = e.identity.UserID()
	}
	if e.cache != nil && owner != "" {
		if err := e.cache.Delete(ctx, owner); err != nil {
			e.logger.Warn("failed to clear cached mood result", "error", err)
		}
	}
	e.logger.Debug("chat reset", "user_id", owner)
}
