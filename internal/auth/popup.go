package auth

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodtunes/internal/shared"
)

// Window is a secondary login surface.
type Window interface {
	Closed() bool
	// Location returns the surface's current URL. An error means the location is not readable
	// yet, usually because the surface is still on the provider's pages.
	Location() (string, error)
	Close() error
}

// Opener opens a login surface. A nil Window means the surface was blocked.
type Opener interface {
	Open(url string) Window
}

// MessageSource delivers identities posted by the login surface.
type MessageSource interface {
	Subscribe(fn func(userID string)) (unsubscribe func())
}

// Navigator moves the primary surface. Replace must not leave a history entry.
type Navigator interface {
	Navigate(url string) error
	Replace(url string) error
}

// PopupController manages exactly one login surface at a time.
type PopupController struct {
	opener       Opener
	messages     MessageSource
	navigator    Navigator
	clock        shared.Clock
	pollInterval time.Duration
	timeout      time.Duration
	logger       *log.Logger

	mu        sync.Mutex
	current   *Attempt
	observers atomic.Int32
}

// NewPopupController creates a controller. Zero durations fall back to 1s polling and a 120s timeout.
func NewPopupController(opener Opener, messages MessageSource, navigator Navigator, config shared.AuthConfig, clock shared.Clock, logger *log.Logger) *PopupController {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	poll, timeout := config.PollInterval, config.PopupTimeout
	if poll <= 0 {
		poll = time.Second
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &PopupController{
		opener:       opener,
		messages:     messages,
		navigator:    navigator,
		clock:        clock,
		pollInterval: poll,
		timeout:      timeout,
		logger:       shared.WithLogger(logger, "component", "popup"),
	}
}

// Launch cancels any previous attempt and opens url in a new surface.
//
// A blocked surface returns [shared.ErrPopupBlocked] with the attempt already failed and no
// observers started; onSettle is not called in that case. Otherwise onSettle runs exactly once,
// after every observer of the attempt has been torn down.
func (c *PopupController) Launch(url string, onSettle func(*Attempt)) (*Attempt, error) {
	c.Cancel()

	window := c.opener.Open(url)
	a := newAttempt(StrategyPopup, window, c.clock.Now())

	if window == nil {
		c.logger.Warn("auth popup blocked", "attempt", a.ID)
		a.resolve(AttemptFailed, "", shared.ErrPopupBlocked)
		return a, shared.ErrPopupBlocked
	}

	a.onSettle = onSettle
	c.mu.Lock()
	c.current = a
	c.mu.Unlock()
	c.logger.Info("auth popup opened", "attempt", a.ID)

	c.observe(a, func() {
		unsubscribe := c.messages.Subscribe(func(userID string) {
			if userID == "" {
				return
			}
			c.logger.Info("received user id from message", "attempt", a.ID, "user_id", userID)
			a.resolve(AttemptSucceeded, userID, nil)
		})
		c.logger.Debug("auth message listener setup completed", "attempt", a.ID)
		a.addTeardown(func() {
			unsubscribe()
			c.logger.Debug("auth message listener removed", "attempt", a.ID)
		})
	})

	c.observe(a, func() {
		c.poll(a, func() bool {
			if window.Closed() {
				c.logger.Info("auth popup was closed by user", "attempt", a.ID)
				a.resolve(AttemptCancelled, "", shared.ErrAuthCancelled)
				return true
			}
			return false
		})
	})

	c.observe(a, func() {
		c.poll(a, func() bool {
			location, err := window.Location()
			if err != nil {
				return false
			}
			userID, _, err := CaptureRedirect(location)
			if err != nil || userID == "" {
				return false
			}
			c.logger.Info("auth popup redirected back", "attempt", a.ID, "user_id", userID)
			a.resolve(AttemptSucceeded, userID, nil)
			return true
		})
	})

	c.observe(a, func() {
		timer := c.clock.AfterFunc(c.timeout, func() {
			if a.Status() != AttemptPending {
				return
			}
			c.logger.Warn("auth popup timed out", "attempt", a.ID, "after", c.timeout)
			a.resolve(AttemptTimedOut, "", shared.ErrAuthTimeout, a.closeWindow)
		})
		a.addTeardown(func() { timer.Stop() })
	})

	return a, nil
}

// observe starts one observer and counts it until the attempt tears it down.
func (c *PopupController) observe(a *Attempt, start func()) {
	c.observers.Add(1)
	a.addTeardown(func() { c.observers.Add(-1) })
	start()
}

// poll runs check on every tick until it reports true or the attempt settles.
func (c *PopupController) poll(a *Attempt, check func() bool) {
	ticker := c.clock.NewTicker(c.pollInterval)
	stop := make(chan struct{})
	a.addTeardown(func() {
		ticker.Stop()
		close(stop)
	})

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C():
				if check() {
					return
				}
			}
		}
	}()
}

// Redirect starts a redirect attempt: the primary surface navigates to url and no observers run.
// The attempt stays pending until it is resolved by a later session check or cancelled.
func (c *PopupController) Redirect(url string) (*Attempt, error) {
	c.Cancel()

	a := newAttempt(StrategyRedirect, nil, c.clock.Now())
	c.logger.Info("using direct redirect for authentication", "attempt", a.ID)

	if err := c.navigator.Navigate(url); err != nil {
		a.resolve(AttemptFailed, "", err)
		return a, err
	}

	c.mu.Lock()
	c.current = a
	c.mu.Unlock()
	return a, nil
}

// Current returns the pending attempt, or nil.
func (c *PopupController) Current() *Attempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Status() == AttemptPending {
		return c.current
	}
	return nil
}

// Cancel closes the surface of the current attempt and settles it as cancelled.
func (c *PopupController) Cancel() {
	c.mu.Lock()
	a := c.current
	c.current = nil
	c.mu.Unlock()

	if a == nil {
		return
	}
	c.settleCancelled(a)
}

// cancelAttempt cancels a only, leaving any newer attempt alone.
func (c *PopupController) cancelAttempt(a *Attempt) {
	c.mu.Lock()
	if c.current == a {
		c.current = nil
	}
	c.mu.Unlock()
	c.settleCancelled(a)
}

func (c *PopupController) settleCancelled(a *Attempt) {
	if a.resolve(AttemptCancelled, "", shared.ErrAuthCancelled, a.closeWindow) {
		c.logger.Debug("auth attempt cancelled", "attempt", a.ID)
		return
	}
	a.closeWindow()
}

// Succeed settles the current attempt as succeeded for userID, closing its surface.
func (c *PopupController) Succeed(userID string) {
	c.mu.Lock()
	a := c.current
	c.current = nil
	c.mu.Unlock()

	if a == nil {
		return
	}
	a.resolve(AttemptSucceeded, userID, nil)
	a.closeWindow()
}

// ActiveObservers reports the observers still attached to any attempt.
func (c *PopupController) ActiveObservers() int {
	return int(c.observers.Load())
}
