package server

import (
	"errors"
	"sync"
)

// ErrLocationUnavailable is returned by [Window.Location] while the browser is still on the
// provider's pages and has not landed on the callback server.
var ErrLocationUnavailable = errors.New("window location not readable")

// Window tracks one browser login surface as seen from the callback server.
type Window struct {
	mu       sync.Mutex
	location string
	closed   bool
}

// Closed reports whether the user cancelled or the window was closed.
func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Location returns the last callback URL the browser landed on.
func (w *Window) Location() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.location == "" {
		return "", ErrLocationUnavailable
	}
	return w.location, nil
}

// Close marks the window closed. It is safe to call more than once.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *Window) land(location string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.location = location
	}
}
