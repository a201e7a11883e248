package auth

import (
	"fmt"
	"io"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodtunes/internal/server"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// RedirectParam is the query parameter the backend appends when a login completes by redirect.
const RedirectParam = "user_id"

// CaptureRedirect extracts the identity from rawURL and returns the URL with the parameter removed.
func CaptureRedirect(rawURL string) (userID, cleaned string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	q := u.Query()
	userID = q.Get(RedirectParam)
	q.Del(RedirectParam)
	u.RawQuery = q.Encode()

	return userID, u.String(), nil
}

// BrowserOpener opens login surfaces in the system browser, backed by the loopback callback server.
type BrowserOpener struct {
	server *server.CallbackServer
	open   func(url string) error
	logger *log.Logger
}

// NewBrowserOpener returns an [Opener] that starts srv on first use.
func NewBrowserOpener(srv *server.CallbackServer, logger *log.Logger) *BrowserOpener {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &BrowserOpener{server: srv, open: shared.OpenBrowser, logger: logger}
}

// Open implements [Opener]. Failing to start the server or launch the browser counts as blocked.
func (o *BrowserOpener) Open(url string) Window {
	if err := o.server.Start(); err != nil {
		o.logger.Error("callback server unavailable", "error", err)
		return nil
	}

	window := o.server.NewWindow()
	if err := o.open(url); err != nil {
		o.logger.Warn("could not open browser", "error", err)
		window.Close()
		return nil
	}
	return window
}

// TerminalNavigator prints URLs for the user to open, for sessions without a browser.
type TerminalNavigator struct {
	w io.Writer
}

// NewTerminalNavigator writes navigation instructions to w.
func NewTerminalNavigator(w io.Writer) *TerminalNavigator {
	return &TerminalNavigator{w: w}
}

// Navigate prints url with instructions for finishing the login.
func (n *TerminalNavigator) Navigate(url string) error {
	_, err := fmt.Fprintf(n.w,
		"Open this URL in a browser to log in:\n\n  %s\n\nThen run `moodtunes auth resume <url>` with the address you land on.\n", url)
	return err
}

// Replace is a no-op: a terminal keeps no history.
func (n *TerminalNavigator) Replace(string) error { return nil }
