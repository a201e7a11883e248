package testing

import (
	"sync"

	"github.com/desertthunder/moodtunes/internal/auth"
)

// FakeWindow is a scriptable [auth.Window].
type FakeWindow struct {
	mu         sync.Mutex
	URL        string
	closed     bool
	location   string
	closeCalls int
}

// Closed implements [auth.Window].
func (w *FakeWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Location implements [auth.Window]; it fails until [FakeWindow.Land] is called.
func (w *FakeWindow) Location() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.location == "" {
		return "", errCrossOrigin
	}
	return w.location, nil
}

// Close implements [auth.Window].
func (w *FakeWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.closeCalls++
	return nil
}

// UserClose simulates the user closing the window without logging in.
func (w *FakeWindow) UserClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// Land simulates navigation to a same-origin location.
func (w *FakeWindow) Land(location string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.location = location
}

// CloseCalls reports how many times Close was called.
func (w *FakeWindow) CloseCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeCalls
}

type crossOriginError struct{}

func (crossOriginError) Error() string { return "cross-origin location" }

var errCrossOrigin error = crossOriginError{}

// FakeOpener records opened windows. When Blocked is set it returns nil like a popup blocker.
type FakeOpener struct {
	mu      sync.Mutex
	Blocked bool
	windows []*FakeWindow
}

// Open implements [auth.Opener].
func (o *FakeOpener) Open(url string) auth.Window {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Blocked {
		return nil
	}
	w := &FakeWindow{URL: url}
	o.windows = append(o.windows, w)
	return w
}

// Windows returns every window opened so far.
func (o *FakeOpener) Windows() []*FakeWindow {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*FakeWindow(nil), o.windows...)
}

// Last returns the most recently opened window, or nil.
func (o *FakeOpener) Last() *FakeWindow {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.windows) == 0 {
		return nil
	}
	return o.windows[len(o.windows)-1]
}

// FakeMessageSource is an in-memory [auth.MessageSource].
type FakeMessageSource struct {
	mu     sync.Mutex
	subs   map[int]func(string)
	nextID int
}

// Subscribe implements [auth.MessageSource].
func (m *FakeMessageSource) Subscribe(fn func(userID string)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs == nil {
		m.subs = make(map[int]func(string))
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Post delivers userID to every subscriber, like a message from the login window.
func (m *FakeMessageSource) Post(userID string) {
	m.mu.Lock()
	fns := make([]func(string), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(userID)
	}
}

// Subscribers reports live subscriptions.
func (m *FakeMessageSource) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// FakeNavigator records navigations.
type FakeNavigator struct {
	mu        sync.Mutex
	Err       error
	navigated []string
	replaced  []string
}

// Navigate implements [auth.Navigator].
func (n *FakeNavigator) Navigate(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.navigated = append(n.navigated, url)
	return nil
}

// Replace implements [auth.Navigator].
func (n *FakeNavigator) Replace(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replaced = append(n.replaced, url)
	return nil
}

// Navigated returns the URLs passed to Navigate.
func (n *FakeNavigator) Navigated() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.navigated...)
}

// Replaced returns the URLs passed to Replace.
func (n *FakeNavigator) Replaced() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.replaced...)
}

// EventRecorder collects coordinator events.
type EventRecorder struct {
	mu     sync.Mutex
	events []auth.Event
}

// Record is suitable for [auth.Coordinator.Subscribe].
func (r *EventRecorder) Record(e auth.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded.
func (r *EventRecorder) Events() []auth.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auth.Event(nil), r.events...)
}

// Routes returns the navigation targets in order.
func (r *EventRecorder) Routes() []string {
	var routes []string
	for _, e := range r.Events() {
		if e.Kind == auth.EventNavigate {
			routes = append(routes, e.Route)
		}
	}
	return routes
}

// Errors returns the errors of error notifications in order.
func (r *EventRecorder) Errors() []error {
	var errs []error
	for _, e := range r.Events() {
		if e.Kind == auth.EventNotify && e.Err != nil {
			errs = append(errs, e.Err)
		}
	}
	return errs
}
