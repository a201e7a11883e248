package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/moodtunes/internal/shared"
)

// Message is the payload the landing page posts back once the provider has redirected.
type Message struct {
	UserID string `json:"user_id"`
}

// CallbackServer is the loopback HTTP server standing in for the app origin during a browser login.
//
// It implements [Handler] and exposes three routes:
//   - POST /message : cross-window message channel, body [Message]
//   - GET /callback : landing page the backend redirects to, records the location on the current [Window]
//   - GET /cancel : marks the current window closed
type CallbackServer struct {
	host   string
	port   int
	logger *log.Logger

	mu          sync.Mutex
	window      *Window
	subscribers map[int]func(userID string)
	nextID      int
	listener    net.Listener
	httpServer  *http.Server
}

// NewCallbackServer creates a server for host:port. Port 0 picks a free port on [CallbackServer.Start].
func NewCallbackServer(host string, port int, logger *log.Logger) *CallbackServer {
	if host == "" {
		host = "127.0.0.1"
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &CallbackServer{
		host:        host,
		port:        port,
		logger:      shared.WithLogger(logger, "component", "callback-server"),
		subscribers: make(map[int]func(string)),
	}
}

// Routes returns the HTTP routes this handler serves.
func (s *CallbackServer) Routes() []string {
	return []string{"/message", "/callback", "/cancel"}
}

// ServeHTTP dispatches to the route handlers.
func (s *CallbackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/message":
		s.handleMessage(w, r)
	case "/callback":
		s.handleCallback(w, r)
	case "/cancel":
		s.handleCancel(w, r)
	default:
		http.NotFound(w, r)
	}
}

// Router builds the router serving this handler.
func (s *CallbackServer) Router() *ChiRouter {
	router := NewRouter()
	router.Use(RequestLogger(s.logger))
	router.Handler(s)
	return router
}

// Start begins listening. It is a no-op when the server is already running.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}

	s.listener = ln
	s.httpServer = &http.Server{Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}

	go func(srv *http.Server, ln net.Listener) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("callback server stopped", "error", err)
		}
	}(s.httpServer, ln)

	s.logger.Info("callback server listening", "addr", ln.Addr().String())
	return nil
}

// Shutdown stops the server and closes any open window.
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.httpServer, s.listener = nil, nil
	if s.window != nil {
		s.window.Close()
	}
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// BaseURL returns the origin of the running server, e.g. http://127.0.0.1:8765.
func (s *CallbackServer) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return "http://" + s.listener.Addr().String()
	}
	return "http://" + net.JoinHostPort(s.host, strconv.Itoa(s.port))
}

// NewWindow starts tracking a new login surface, closing the previous one.
func (s *CallbackServer) NewWindow() *Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.window != nil {
		s.window.Close()
	}
	s.window = &Window{}
	return s.window
}

// Subscribe registers fn for every identity posted to /message. The returned func unsubscribes.
func (s *CallbackServer) Subscribe(fn func(userID string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
		})
	}
}

// Subscribers reports the number of live message listeners.
func (s *CallbackServer) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *CallbackServer) publish(userID string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(userID)
	}
}

func (s *CallbackServer) current() *Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

func (s *CallbackServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// A cross-site form cannot send JSON, and a cross-site fetch carries a foreign Origin.
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		http.Error(w, "expected application/json", http.StatusUnsupportedMediaType)
		return
	}
	if origin := r.Header.Get("Origin"); origin != "" && origin != "http://"+r.Host {
		s.logger.Warn("rejected message from foreign origin", "origin", origin)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	var msg Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&msg); err != nil || msg.UserID == "" {
		http.Error(w, "expected {\"user_id\": \"...\"}", http.StatusBadRequest)
		return
	}

	s.logger.Info("message received from login window", "user_id", msg.UserID)
	s.publish(msg.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if win := s.current(); win != nil {
		win.land(s.BaseURL() + r.URL.RequestURI())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := landingPage.Execute(w, r.URL.Query().Get("user_id")); err != nil {
		s.logger.Warn("failed to render landing page", "error", err)
	}
}

func (s *CallbackServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	if win := s.current(); win != nil {
		win.Close()
		s.logger.Info("login window closed by user")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, cancelPage)
}

var landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>MoodTunes</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
    {{if .}}
        <h1>✓ Logged in</h1>
        <p>You can close this window and return to the terminal.</p>
        <script>
            fetch("/message", {method: "POST", headers: {"Content-Type": "application/json"},
                body: JSON.stringify({user_id: {{.}}})}).finally(function () { window.close(); });
        </script>
    {{else}}
        <h1>Login did not complete</h1>
        <p><a href="/cancel">Cancel</a> and try again from the terminal.</p>
    {{end}}
    </div>
</body>
</html>
`))

const cancelPage = `<!DOCTYPE html>
<html><head><title>MoodTunes</title></head>
<body><p>Login cancelled. You can close this window.</p></body>
</html>
`
