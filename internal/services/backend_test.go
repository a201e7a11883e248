package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/moodtunes/internal/shared"
	tu "github.com/desertthunder/moodtunes/internal/testing"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) (*BackendClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewBackendClient(shared.BackendConfig{BaseURL: server.URL}, nil, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client, server
}

func TestBackendClient(t *testing.T) {
	ctx := context.Background()

	t.Run("New", func(t *testing.T) {
		t.Run("Rejects Invalid BaseURL", func(t *testing.T) {
			for _, raw := range []string{"", "not a url", "/relative"} {
				if _, err := NewBackendClient(shared.BackendConfig{BaseURL: raw}, nil, nil); !errors.Is(err, shared.ErrInvalidConfig) {
					t.Errorf("%q: expected ErrInvalidConfig, got %v", raw, err)
				}
			}
		})

		t.Run("Uses Custom Client", func(t *testing.T) {
			custom := &http.Client{}
			c, err := NewBackendClient(shared.BackendConfig{BaseURL: "http://example.com"}, custom, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if c.httpClient != custom {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("Default Client Has Cookie Jar", func(t *testing.T) {
			c, err := NewBackendClient(shared.BackendConfig{BaseURL: "http://example.com"}, nil, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if c.httpClient.Jar == nil {
				t.Error("expected cookie jar on default client")
			}
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/login" {
				t.Errorf("expected path /login, got %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(LoginResponse{AuthURL: "https://accounts.example/authorize"})
		})

		got, err := c.AuthURL(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "https://accounts.example/authorize" {
			t.Errorf("unexpected auth url %s", got)
		}
	})

	t.Run("AuthURL Missing Field", func(t *testing.T) {
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})

		if _, err := c.AuthURL(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Cookies Persist Between Calls", func(t *testing.T) {
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/login":
				http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
				w.Write([]byte(`{"auth_url":"https://x"}`))
			case "/session-info":
				cookie, err := r.Cookie("session")
				if err != nil || cookie.Value != "s1" {
					w.Write([]byte(`{"authenticated":false}`))
					return
				}
				w.Write([]byte(`{"authenticated":true,"user_id":"u1"}`))
			}
		})

		if _, err := c.AuthURL(ctx); err != nil {
			t.Fatalf("login failed: %v", err)
		}
		info, err := c.SessionInfo(ctx)
		if err != nil {
			t.Fatalf("session info failed: %v", err)
		}
		if !info.Authenticated || info.UserID != "u1" {
			t.Errorf("expected authenticated u1, got %+v", info)
		}
	})

	t.Run("SessionUser", func(t *testing.T) {
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("user_id") != "u1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		if err := c.SessionUser(ctx, "u1"); err != nil {
			t.Errorf("expected valid session, got %v", err)
		}
		if err := c.SessionUser(ctx, "u2"); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("Chat", func(t *testing.T) {
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected json content type, got %s", ct)
			}

			var req ChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if req.Message != "hello" || req.UserID != "u1" || req.Lang != "pt" {
				t.Errorf("unexpected request %+v", req)
			}
			w.Write([]byte(`{"response":"hi there","interaction_count":2}`))
		})

		resp, err := c.Chat(ctx, ChatRequest{Message: "hello", UserID: "u1", Lang: "pt"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Reply() != "hi there" || resp.InteractionCount != 2 {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("Chat Legacy Reply Field", func(t *testing.T) {
		r := ChatResponse{Resposta: "olá"}
		if r.Reply() != "olá" {
			t.Errorf("expected fallback reply, got %q", r.Reply())
		}
	})

	t.Run("Status Mapping", func(t *testing.T) {
		tc := []struct {
			status int
			want   error
		}{
			{http.StatusUnauthorized, shared.ErrUnauthorized},
			{http.StatusBadRequest, shared.ErrAPIRequest},
			{http.StatusNotFound, shared.ErrNotFound},
			{http.StatusBadGateway, shared.ErrServiceUnavailable},
		}

		for _, tt := range tc {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
				})

				_, err := c.CreatePlaylist(ctx, "u1")
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if StatusCode(err) != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, StatusCode(err))
				}
			})
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/create-playlist" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"success":true,"mood":"happy","playlist_url":"https://open.spotify.com/playlist/abc123"}`))
		})

		resp, err := c.CreatePlaylist(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !resp.Success || resp.Mood != "happy" {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("MoodResult", func(t *testing.T) {
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/moodresult" || r.URL.Query().Get("user_id") != "u1" {
				t.Errorf("unexpected request %s", r.URL)
			}
			w.Write([]byte(`{"mood":"calm","playlist_url":"p"}`))
		})

		resp, err := c.MoodResult(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.Mood != "calm" {
			t.Errorf("expected calm, got %s", resp.Mood)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		called := false
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			called = r.URL.Path == "/logout"
			w.WriteHeader(http.StatusOK)
		})

		if err := c.Logout(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !called {
			t.Error("expected /logout to be called")
		}
	})

	t.Run("Connection Error", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial refused"))}
		c, err := NewBackendClient(shared.BackendConfig{BaseURL: "http://example.com"}, client, nil)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if _, err := c.SessionInfo(ctx); !errors.Is(err, shared.ErrConnection) {
			t.Errorf("expected ErrConnection, got %v", err)
		}
	})

	t.Run("Body Read Error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		c, _ := NewBackendClient(shared.BackendConfig{BaseURL: "http://example.com"}, client, nil)

		if _, err := c.SessionInfo(ctx); !errors.Is(err, shared.ErrConnection) {
			t.Errorf("expected ErrConnection, got %v", err)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		c, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		})

		if _, err := c.SessionInfo(ctx); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Base Path Preserved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/session-info" {
				t.Errorf("expected /api/session-info, got %s", r.URL.Path)
			}
			w.Write([]byte(`{"authenticated":false}`))
		}))
		defer server.Close()

		c, _ := NewBackendClient(shared.BackendConfig{BaseURL: server.URL + "/api/"}, nil, nil)
		if _, err := c.SessionInfo(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
