package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/moodtunes/internal/shared"
	tu "github.com/desertthunder/moodtunes/internal/testing"
)

const testPlaylistURL = "https://open.spotify.com/playlist/37i9dQZF1DXdPec7aLTmlC"

// fakeBackend scripts the MoodTunes backend: u1 is a known user and the fifth chat turn produces
// a playlist. Like the real backend, /session-info only reports a session for a request carrying
// the cookie set in the browser during OAuth, which a terminal client never holds.
type fakeBackend struct {
	mu           sync.Mutex
	turns        int
	logouts      int
	sessionInfos int
	// chatStatus, when set, is returned by /chat instead of a reply.
	chatStatus int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var body any
	switch r.URL.Path {
	case "/login":
		body = map[string]string{"auth_url": "https://accounts.spotify.com/authorize?client_id=test"}
	case "/session-info":
		b.sessionInfos++
		if _, err := r.Cookie("session"); err != nil {
			body = map[string]any{"authenticated": false}
			break
		}
		body = map[string]any{"authenticated": true, "user_id": "u1"}
	case "/session_user":
		if r.URL.Query().Get("user_id") != "u1" {
			http.Error(w, `{"error":"unknown user"}`, http.StatusUnauthorized)
			return
		}
		body = map[string]any{"user_id": "u1"}
	case "/chat":
		if b.chatStatus != 0 {
			http.Error(w, `{"error":"session expired"}`, b.chatStatus)
			return
		}
		b.turns++
		body = map[string]any{"response": fmt.Sprintf("reply %d", b.turns), "interaction_count": b.turns}
	case "/create-playlist":
		body = map[string]any{"success": true, "mood": "happy", "playlist_url": testPlaylistURL}
	case "/logout":
		b.logouts++
		body = map[string]any{}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}

func (b *fakeBackend) Logouts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logouts
}

func (b *fakeBackend) SessionInfos() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionInfos
}

func (b *fakeBackend) rejectChat(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chatStatus = status
}

type fixture struct {
	t          *testing.T
	backend    *fakeBackend
	configPath string
	dir        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	conf := fmt.Sprintf(`
[backend]
base_url = %q
rate_limit = 0.0

[database]
path = %q

[log]
file = %q
`, srv.URL, filepath.Join(dir, "moodtunes.db"), filepath.Join(dir, "tui.log"))

	if err := os.WriteFile(configPath, []byte(conf), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	return &fixture{t: t, backend: backend, configPath: configPath, dir: dir}
}

// run executes one CLI invocation with a fresh runner, like a separate process would.
func (f *fixture) run(args ...string) (string, error) {
	f.t.Helper()

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Logger:   shared.DiscardLogger(),
		Output:   output,
		Headless: func() bool { return true },
	})

	argv := append([]string{"moodtunes", "--config", f.configPath}, args...)
	err := rootCommand(runner).Run(context.Background(), argv)

	if cerr := runner.Close(context.Background()); cerr != nil {
		f.t.Errorf("close failed: %v", cerr)
	}
	return output.String(), err
}

func (f *fixture) mustRun(args ...string) string {
	f.t.Helper()
	out, err := f.run(args...)
	if err != nil {
		f.t.Fatalf("%v: unexpected error %v\noutput:\n%s", args, err, out)
	}
	return out
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nothing provided uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != nil {
				t.Error("expected backend client to get its own http client")
			}
			if runner.headless == nil {
				t.Error("expected headless check to be set")
			}
		})

		t.Run("close without app", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if err := runner.Close(context.Background()); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, name := range []string{"setup", "auth", "chat", "result", "reset"} {
			if !names[name] {
				t.Errorf("expected %q command to be registered", name)
			}
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("setup", func(t *testing.T) {
		t.Run("database", func(t *testing.T) {
			f := newFixture(t)

			out := f.mustRun("setup", "database")
			if !strings.Contains(out, "Database ready") {
				t.Errorf("unexpected output %q", out)
			}
			tu.AssertFileExists(t, filepath.Join(f.dir, "moodtunes.db"))

			out = f.mustRun("setup", "database")
			if !strings.Contains(out, "(0 migrations applied)") {
				t.Errorf("expected no pending migrations on second run, got %q", out)
			}
		})

		t.Run("config", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.toml")

			runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
			if err := rootCommand(runner).Run(context.Background(), []string{"moodtunes", "--config", path, "setup", "config"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			content := tu.MustReadFile(t, path)
			if !strings.Contains(content, "[backend]") {
				t.Errorf("expected default config, got:\n%s", content)
			}

			runner = NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: &bytes.Buffer{}})
			if err := rootCommand(runner).Run(context.Background(), []string{"moodtunes", "--config", path, "setup", "config"}); err == nil {
				t.Error("expected error when the config already exists")
			}
		})
	})

	t.Run("requires login", func(t *testing.T) {
		f := newFixture(t)

		for _, args := range [][]string{{"chat", "send", "hello"}, {"result"}, {"reset"}} {
			if _, err := f.run(args...); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("%v: expected ErrNotAuthenticated, got %v", args, err)
			}
		}
	})

	t.Run("argument validation", func(t *testing.T) {
		f := newFixture(t)

		if _, err := f.run("auth", "login", "--strategy", "carrier-pigeon"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := f.run("auth", "resume"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := f.run("result", "--format", "pdf"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("default config verifies without browser cookies", func(t *testing.T) {
		f := newFixture(t)

		out := f.mustRun("auth", "resume", "http://127.0.0.1:8765/callback?user_id=u1")
		if !strings.Contains(out, "Logged in as u1") {
			t.Fatalf("unexpected resume output %q", out)
		}
		if out := f.mustRun("auth", "status"); !strings.Contains(out, "User: u1") {
			t.Errorf("expected restored session, got %q", out)
		}
		if n := f.backend.SessionInfos(); n != 0 {
			t.Errorf("expected no cookie-based session checks, got %d", n)
		}

		if _, err := f.run("auth", "resume", "http://127.0.0.1:8765/callback?user_id=u9"); !errors.Is(err, shared.ErrSessionExpired) {
			t.Errorf("expected unknown user to be rejected, got %v", err)
		}
	})

	t.Run("unauthorized chat logs out", func(t *testing.T) {
		f := newFixture(t)
		f.mustRun("auth", "resume", "http://127.0.0.1:8765/callback?user_id=u1")
		f.mustRun("chat", "send", "hello")

		f.backend.rejectChat(http.StatusUnauthorized)
		if _, err := f.run("chat", "send", "still there?"); !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}

		var status sessionStatus
		if err := json.Unmarshal([]byte(f.mustRun("auth", "status", "--json")), &status); err != nil {
			t.Fatalf("invalid status JSON: %v", err)
		}
		if status.Authenticated || status.UserID != "" {
			t.Errorf("expected logged out after 401, got %+v", status)
		}
		if _, err := f.run("chat", "send", "hello"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("redirect login through result and logout", func(t *testing.T) {
		f := newFixture(t)

		var status sessionStatus
		if err := json.Unmarshal([]byte(f.mustRun("auth", "status", "--json")), &status); err != nil {
			t.Fatalf("invalid status JSON: %v", err)
		}
		if status.Authenticated {
			t.Fatal("expected no session before login")
		}

		out := f.mustRun("auth", "login", "--strategy", "redirect")
		if !strings.Contains(out, "https://accounts.spotify.com/authorize?client_id=test") {
			t.Errorf("expected login URL in output, got %q", out)
		}

		out = f.mustRun("auth", "resume", "http://127.0.0.1:8765/callback?user_id=u1&lang=en")
		if !strings.Contains(out, "Logged in as u1") {
			t.Errorf("unexpected resume output %q", out)
		}

		out = f.mustRun("auth", "status")
		if !strings.Contains(out, "User: u1") {
			t.Errorf("expected restored session, got %q", out)
		}

		for i := 1; i < 5; i++ {
			out = f.mustRun("chat", "send", fmt.Sprintf("message %d", i))
			if !strings.Contains(out, fmt.Sprintf("reply %d", i)) || !strings.Contains(out, fmt.Sprintf("(%d/5 interactions)", i)) {
				t.Errorf("turn %d: unexpected output %q", i, out)
			}
		}

		out = f.mustRun("chat", "send", "message 5")
		if !strings.Contains(out, "playlist is ready") || !strings.Contains(out, testPlaylistURL) {
			t.Errorf("expected finished conversation, got %q", out)
		}

		var export map[string]any
		if err := json.Unmarshal([]byte(f.mustRun("result", "--format", "json")), &export); err != nil {
			t.Fatalf("invalid result JSON: %v", err)
		}
		if export["mood"] != "happy" {
			t.Errorf("expected cached mood, got %v", export["mood"])
		}

		mdDir := filepath.Join(f.dir, "export")
		f.mustRun("result", "--format", "markdown", "--output", mdDir)
		if md := tu.MustReadFile(t, filepath.Join(mdDir, "README.md")); !strings.Contains(md, "happy") {
			t.Errorf("expected mood in markdown export, got:\n%s", md)
		}

		f.mustRun("reset")
		if _, err := f.run("result"); !errors.Is(err, shared.ErrNoResult) {
			t.Errorf("expected ErrNoResult after reset, got %v", err)
		}

		out = f.mustRun("auth", "logout")
		if !strings.Contains(out, "Logged out") {
			t.Errorf("unexpected logout output %q", out)
		}
		if f.backend.Logouts() != 1 {
			t.Errorf("expected backend logout, got %d", f.backend.Logouts())
		}

		if err := json.Unmarshal([]byte(f.mustRun("auth", "status", "--json")), &status); err != nil {
			t.Fatalf("invalid status JSON: %v", err)
		}
		if status.Authenticated {
			t.Error("expected no session after logout")
		}
	})
}
