package auth

import (
	"sync"
	"time"

	"github.com/desertthunder/moodtunes/internal/shared"
)

// Strategy selects how the login surface is presented.
type Strategy string

const (
	StrategyAuto     Strategy = "auto"
	StrategyPopup    Strategy = "popup"
	StrategyRedirect Strategy = "redirect"
)

// AttemptStatus is the lifecycle state of an [Attempt].
type AttemptStatus int

const (
	AttemptPending AttemptStatus = iota
	AttemptSucceeded
	AttemptFailed
	AttemptTimedOut
	AttemptCancelled
)

func (s AttemptStatus) String() string {
	switch s {
	case AttemptPending:
		return "pending"
	case AttemptSucceeded:
		return "succeeded"
	case AttemptFailed:
		return "failed"
	case AttemptTimedOut:
		return "timed-out"
	case AttemptCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Attempt is one login operation. It settles exactly once: the first resolver wins and
// every later resolution is a no-op.
type Attempt struct {
	ID        string
	Strategy  Strategy
	StartedAt time.Time

	window Window
	done   chan struct{}

	mu       sync.Mutex
	status   AttemptStatus
	userID   string
	err      error
	teardown []func()
	onSettle func(*Attempt)
}

func newAttempt(strategy Strategy, window Window, now time.Time) *Attempt {
	return &Attempt{
		ID:        shared.GenerateID(),
		Strategy:  strategy,
		StartedAt: now,
		window:    window,
		done:      make(chan struct{}),
	}
}

// Status returns the current status.
func (a *Attempt) Status() AttemptStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// UserID returns the identity the attempt resolved with, if it succeeded.
func (a *Attempt) UserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}

// Err returns the terminal error, nil for success or while pending.
func (a *Attempt) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Done is closed once the attempt has settled and its observers are torn down.
func (a *Attempt) Done() <-chan struct{} { return a.done }

// Window returns the login surface, nil for redirect attempts.
func (a *Attempt) Window() Window { return a.window }

func (a *Attempt) closeWindow() {
	if a.window != nil {
		a.window.Close()
	}
}

// addTeardown registers f to run at settlement. When the attempt has already settled f runs now.
func (a *Attempt) addTeardown(f func()) {
	a.mu.Lock()
	if a.status != AttemptPending {
		a.mu.Unlock()
		f()
		return
	}
	a.teardown = append(a.teardown, f)
	a.mu.Unlock()
}

// resolve settles the attempt. effects run once the status is claimed, then observers are torn
// down, then done is closed and onSettle runs.
func (a *Attempt) resolve(status AttemptStatus, userID string, err error, effects ...func()) bool {
	a.mu.Lock()
	if a.status != AttemptPending {
		a.mu.Unlock()
		return false
	}
	a.status, a.userID, a.err = status, userID, err
	teardown, cb := a.teardown, a.onSettle
	a.teardown = nil
	a.mu.Unlock()

	for _, f := range effects {
		f()
	}
	for i := len(teardown) - 1; i >= 0; i-- {
		teardown[i]()
	}
	close(a.done)

	if cb != nil {
		cb(a)
	}
	return true
}
