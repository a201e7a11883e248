package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// Status is the coordinator state.
type Status int

const (
	StatusAnonymous Status = iota
	StatusAuthPending
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthPending:
		return "auth-pending"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Backend is the part of the backend client the coordinator calls directly.
type Backend interface {
	AuthURL(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// Verifier confirms an identity with the backend.
type Verifier interface {
	Verify(ctx context.Context, userID string) error
}

// Store persists the session record and the auth-in-progress flag.
type Store interface {
	Load(ctx context.Context) (*models.SessionRecord, bool, error)
	Save(ctx context.Context, userID string) error
	Clear(ctx context.Context) error
	MarkAuthInProgress(ctx context.Context) error
	AuthInProgress(ctx context.Context) (bool, error)
	ClearAuthInProgress(ctx context.Context) error
}

// Snapshot is a point-in-time copy of the coordinator state.
type Snapshot struct {
	UserID          string
	Status          Status
	IsAuthenticated bool
	IsLoading       bool
	LoginError      error
}

// Option configures a [Coordinator].
type Option func(*Coordinator)

// WithHeadlessCheck replaces the constrained-terminal check used by the auto strategy.
func WithHeadlessCheck(f func() bool) Option {
	return func(c *Coordinator) { c.headless = f }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = shared.WithLogger(l, "component", "auth") }
}

// Coordinator owns the identity and drives login, logout and session verification.
//
// All state is guarded by one mutex. Network calls run with the mutex released, and their
// results are applied only if no logout or new login happened meanwhile (tracked by seq).
type Coordinator struct {
	backend  Backend
	verifier Verifier
	store    Store
	popups   *PopupController
	strategy Strategy
	headless func() bool
	logger   *log.Logger

	mu       sync.Mutex
	userID   string
	status   Status
	loading  bool
	loginErr error
	relogin  bool
	seq      uint64
	flow     chan struct{}
	subs     map[int]func(Event)
	nextSub  int

	background sync.WaitGroup
}

// NewCoordinator wires a coordinator. strategy is one of auto, popup or redirect.
func NewCoordinator(backend Backend, verifier Verifier, store Store, popups *PopupController, strategy string, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend:  backend,
		verifier: verifier,
		store:    store,
		popups:   popups,
		strategy: Strategy(strategy),
		headless: shared.IsHeadless,
		logger:   shared.WithLogger(shared.DiscardLogger(), "component", "auth"),
		subs:     make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn for every emitted [Event]. Events are delivered outside the lock, in order,
// on the goroutine that caused them.
func (c *Coordinator) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Coordinator) emit(events ...Event) {
	if len(events) == 0 {
		return
	}

	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for i := 0; i < c.nextSub; i++ {
		if fn, ok := c.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	c.mu.Unlock()

	for _, e := range events {
		for _, fn := range fns {
			fn(e)
		}
	}
}

// Snapshot returns the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		UserID:          c.userID,
		Status:          c.status,
		IsAuthenticated: c.status == StatusAuthenticated,
		IsLoading:       c.loading,
		LoginError:      c.loginErr,
	}
}

// UserID returns the confirmed identity, or "" when not authenticated.
func (c *Coordinator) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusAuthenticated {
		return ""
	}
	return c.userID
}

// setStatusLocked changes state and releases [Coordinator.Wait] callers when a login flow ends.
func (c *Coordinator) setStatusLocked(s Status) {
	if c.status == StatusAuthPending && s != StatusAuthPending && c.flow != nil {
		close(c.flow)
		c.flow = nil
	}
	c.status = s
}

func (c *Coordinator) resolveStrategy() Strategy {
	switch c.strategy {
	case StrategyPopup, StrategyRedirect:
		return c.strategy
	}
	if c.headless != nil && c.headless() {
		return StrategyRedirect
	}
	return StrategyPopup
}

// Login starts a login attempt.
//
// Immediate failures (blocked popup, auth URL unavailable) are returned and recorded as the
// login error. The eventual outcome of the attempt is delivered through [Coordinator.CheckSession];
// use [Coordinator.Wait] to block until it is known.
func (c *Coordinator) Login(ctx context.Context) error {
	c.mu.Lock()
	if c.status == StatusAuthPending {
		c.mu.Unlock()
		return shared.ErrAuthPending
	}
	c.loginErr = nil
	c.loading = true
	c.relogin = c.status == StatusAuthenticated
	c.seq++
	seq := c.seq
	c.flow = make(chan struct{})
	c.setStatusLocked(StatusAuthPending)
	c.mu.Unlock()

	strategy := c.resolveStrategy()
	c.logger.Info("login started", "strategy", strategy)

	authURL, err := c.backend.AuthURL(ctx)
	if err != nil {
		return c.abortLogin(seq, err)
	}
	if !c.flowCurrent(seq) {
		c.logger.Info("login superseded before the surface opened")
		return errFlowSuperseded
	}

	var a *Attempt
	if strategy == StrategyRedirect {
		if err := c.store.MarkAuthInProgress(ctx); err != nil {
			c.logger.Warn("failed to mark auth in progress", "error", err)
		}
		a, err = c.popups.Redirect(authURL)
	} else {
		a, err = c.popups.Launch(authURL, func(a *Attempt) { c.attemptSettled(seq, a) })
	}
	if err != nil {
		return c.abortLogin(seq, err)
	}

	// A logout between the check above and the surface opening must not leave it running.
	if !c.flowCurrent(seq) {
		c.popups.cancelAttempt(a)
		if strategy == StrategyRedirect {
			if err := c.store.ClearAuthInProgress(ctx); err != nil {
				c.logger.Warn("failed to clear auth flag", "error", err)
			}
		}
		c.logger.Info("login superseded while the surface opened", "attempt", a.ID)
		return errFlowSuperseded
	}
	return nil
}

var errFlowSuperseded = fmt.Errorf("%w: login flow superseded", shared.ErrAuthCancelled)

// flowCurrent reports whether the login flow numbered seq is still the pending one.
func (c *Coordinator) flowCurrent(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq == seq && c.status == StatusAuthPending
}

// endLoginLocked leaves AuthPending for a flow that produced no new identity. A login started
// while authenticated falls back to the session it replaced.
func (c *Coordinator) endLoginLocked() {
	c.loading = false
	if c.relogin && c.userID != "" {
		c.relogin = false
		c.setStatusLocked(StatusAuthenticated)
		return
	}
	c.relogin = false
	c.userID = ""
	c.setStatusLocked(StatusAnonymous)
}

// abortLogin returns to Anonymous after an immediate login failure.
func (c *Coordinator) abortLogin(seq uint64, err error) error {
	c.mu.Lock()
	if c.seq != seq || c.status != StatusAuthPending {
		c.mu.Unlock()
		return err
	}
	c.loginErr = err
	c.endLoginLocked()
	c.mu.Unlock()

	c.logger.Warn("login failed", "error", err)
	c.emit(notifyErr(err))
	return err
}

// attemptSettled runs once per popup attempt, after its observers are gone.
func (c *Coordinator) attemptSettled(seq uint64, a *Attempt) {
	if a.Status() == AttemptSucceeded {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := c.checkSession(ctx, a.UserID(), &seq); errors.Is(err, shared.ErrAuthCancelled) {
			a.closeWindow()
		}
		return
	}

	c.mu.Lock()
	if c.seq != seq || c.status != StatusAuthPending {
		c.mu.Unlock()
		return
	}
	c.loginErr = a.Err()
	c.endLoginLocked()
	c.mu.Unlock()

	c.logger.Info("login attempt ended", "attempt", a.ID, "status", a.Status(), "error", a.Err())
	if a.Err() != nil {
		c.emit(notifyErr(a.Err()))
	}
}

// Wait blocks until the current login flow has finished, including its session check.
// It returns the login error of the flow, or nil when it ended authenticated.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	flow := c.flow
	c.mu.Unlock()

	if flow != nil {
		select {
		case <-flow:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	snap := c.Snapshot()
	switch {
	case snap.LoginError != nil:
		return snap.LoginError
	case snap.IsAuthenticated:
		return nil
	default:
		return shared.ErrNotAuthenticated
	}
}

// CheckSession verifies id with the backend and adopts it on success.
//
// When the coordinator is already authenticated as id it returns true without any request.
// A rejected identity clears local state like [Coordinator.Logout]; a transport failure keeps
// the stored record so the check can be retried.
func (c *Coordinator) CheckSession(ctx context.Context, id string) (bool, error) {
	return c.checkSession(ctx, id, nil)
}

// checkSession implements [Coordinator.CheckSession]. A non-nil flow restricts the check to the
// login flow it belongs to.
func (c *Coordinator) checkSession(ctx context.Context, id string, flow *uint64) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("%w: empty user id", shared.ErrInvalidInput)
	}

	c.mu.Lock()
	if c.status == StatusAuthenticated && c.userID == id {
		c.mu.Unlock()
		return true, nil
	}
	if flow != nil && (c.seq != *flow || c.status != StatusAuthPending) {
		c.mu.Unlock()
		return false, errFlowSuperseded
	}
	seq := c.seq
	c.loading = true
	c.mu.Unlock()

	err := c.verifier.Verify(ctx, id)

	c.mu.Lock()
	if c.seq != seq {
		c.mu.Unlock()
		c.logger.Debug("dropping stale session check", "user_id", id)
		return false, fmt.Errorf("%w: session check superseded", shared.ErrAuthCancelled)
	}

	switch {
	case err == nil:
		if serr := c.store.Save(ctx, id); serr != nil {
			c.logger.Warn("failed to persist session", "error", serr)
		}
		c.userID = id
		c.loading = false
		c.loginErr = nil
		c.relogin = false
		c.setStatusLocked(StatusAuthenticated)
		c.mu.Unlock()

		c.popups.Succeed(id)
		if cerr := c.store.ClearAuthInProgress(ctx); cerr != nil {
			c.logger.Warn("failed to clear auth flag", "error", cerr)
		}
		c.logger.Info("session confirmed", "user_id", id)
		c.emit(identity(id, true), navigate(RouteChat))
		return true, nil

	case errors.Is(err, shared.ErrSessionExpired):
		c.loginErr = err
		events := c.logoutLocked(ctx)
		c.mu.Unlock()

		c.popups.Cancel()
		c.logger.Info("session rejected", "user_id", id)
		c.emit(append([]Event{notifyErr(err)}, events...)...)
		return false, err

	default:
		switch c.status {
		case StatusAuthPending:
			c.endLoginLocked()
		case StatusAnonymous:
			c.userID = ""
		}
		c.loading = false
		c.loginErr = err
		c.mu.Unlock()

		c.popups.Cancel()
		c.logger.Warn("session check failed", "user_id", id, "error", err)
		c.emit(notifyErr(err))
		return false, err
	}
}

// Logout clears the local session and returns to the entry view. The backend is told in the
// background; its outcome never affects the result.
func (c *Coordinator) Logout(ctx context.Context) {
	c.mu.Lock()
	events := c.logoutLocked(ctx)
	c.mu.Unlock()

	c.popups.Cancel()
	c.emit(events...)
}

// logoutLocked resets local state and returns the events to emit once the lock is released.
func (c *Coordinator) logoutLocked(ctx context.Context) []Event {
	c.seq++
	previous := c.userID

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear session storage", "error", err)
	}

	c.userID = ""
	c.loading = false
	c.relogin = false
	c.setStatusLocked(StatusAnonymous)

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		bctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.backend.Logout(bctx); err != nil {
			c.logger.Debug("backend logout failed", "error", err)
		}
	}()

	c.logger.Info("logged out", "user_id", previous)
	return []Event{identity("", false), navigate(RouteEntry)}
}

// Restore resumes a stored session on startup.
//
// A locally valid record is adopted optimistically and then verified; an expired record is
// cleared. Returns the verification error, if any.
func (c *Coordinator) Restore(ctx context.Context) error {
	if pending, err := c.store.AuthInProgress(ctx); err == nil && pending {
		c.emit(notifyInfo("checking login status"))
	}

	record, valid, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if record == nil {
		return nil
	}
	if !valid {
		c.logger.Info("stored session expired", "user_id", record.UserID)
		c.mu.Lock()
		c.userID = ""
		c.setStatusLocked(StatusAnonymous)
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	if c.status == StatusAnonymous {
		c.userID = record.UserID
	}
	c.mu.Unlock()

	_, err = c.CheckSession(ctx, record.UserID)
	return err
}

// ResumeRedirect completes a redirect login from the URL the browser landed on.
//
// The identity parameter is stripped from the URL by replacement and the cleaned URL is returned.
// A URL without an identity is returned cleaned with no error.
func (c *Coordinator) ResumeRedirect(ctx context.Context, rawURL string) (string, error) {
	userID, cleaned, err := CaptureRedirect(rawURL)
	if err != nil {
		return rawURL, err
	}
	if userID == "" {
		return cleaned, nil
	}

	if c.popups.navigator != nil {
		if err := c.popups.navigator.Replace(cleaned); err != nil {
			c.logger.Debug("failed to replace location", "error", err)
		}
	}

	_, err = c.CheckSession(ctx, userID)
	if cerr := c.store.ClearAuthInProgress(ctx); cerr != nil {
		c.logger.Warn("failed to clear auth flag", "error", cerr)
	}
	return cleaned, err
}

// Close waits for background work started by logout.
func (c *Coordinator) Close() {
	c.background.Wait()
}
