// Backend client for the mood-detection service
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/moodtunes/internal/shared"
)

// APIError is returned for any non-2xx backend response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap maps status codes onto the shared sentinels so callers can use [errors.Is].
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case e.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case e.StatusCode >= http.StatusInternalServerError:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an [*APIError].
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// LoginResponse is returned by GET /login.
type LoginResponse struct {
	AuthURL string `json:"auth_url"`
}

// SessionInfo is returned by GET /session-info.
type SessionInfo struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
	Lang    string `json:"lang,omitempty"`
}

// ChatResponse is returned by POST /chat.
//
// Some backend revisions finish the conversation themselves and include the mood and playlist.
type ChatResponse struct {
	Response         string `json:"response"`
	Resposta         string `json:"resposta,omitempty"`
	InteractionCount int    `json:"interaction_count"`
	Mood             string `json:"mood,omitempty"`
	PlaylistURL      string `json:"playlist_url,omitempty"`
}

// Reply returns the assistant text regardless of which field the backend used.
func (r ChatResponse) Reply() string {
	if r.Response != "" {
		return r.Response
	}
	return r.Resposta
}

// PlaylistResponse is returned by POST /create-playlist.
type PlaylistResponse struct {
	Success     bool   `json:"success"`
	Mood        string `json:"mood,omitempty"`
	PlaylistURL string `json:"playlist_url,omitempty"`
}

// MoodResultResponse is returned by GET /moodresult.
type MoodResultResponse struct {
	Mood        string `json:"mood"`
	PlaylistURL string `json:"playlist_url"`
}

// BackendClient is a credentialed HTTP client for the MoodTunes backend.
//
// Cookies set by the backend are kept in a jar so the session survives between calls, and every
// request passes through a token bucket limiter.
type BackendClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewBackendClient creates a client for config.BaseURL. A nil client gets a fresh one with a cookie jar.
func NewBackendClient(config shared.BackendConfig, client *http.Client, logger *log.Logger) (*BackendClient, error) {
	base, err := url.Parse(config.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: backend base url %q", shared.ErrInvalidConfig, config.BaseURL)
	}

	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		client = &http.Client{Jar: jar, Timeout: config.Timeout}
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	if logger == nil {
		logger = shared.DiscardLogger()
	}

	return &BackendClient{
		baseURL:    base,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     shared.WithLogger(logger, "component", "backend"),
	}, nil
}

// BaseURL returns the configured backend root.
func (c *BackendClient) BaseURL() string { return c.baseURL.String() }

func (c *BackendClient) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = joinPath(u.Path, path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func joinPath(base, path string) string {
	if len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + path
}

// do performs one request. Transport failures wrap [shared.ErrConnection]; non-2xx responses
// return an [*APIError]. When result is non-nil the body is decoded into it.
func (c *BackendClient) do(ctx context.Context, method, path string, query url.Values, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConnection, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %v", shared.ErrConnection, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrConnection, err)
	}

	c.logger.Debug("request complete", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", shared.ErrAPIRequest, path, err)
	}
	return nil
}

// AuthURL fetches the provider authorization URL from GET /login.
func (c *BackendClient) AuthURL(ctx context.Context) (string, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodGet, "/login", nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.AuthURL == "" {
		return "", fmt.Errorf("%w: login response missing auth_url", shared.ErrAPIRequest)
	}
	return resp.AuthURL, nil
}

// SessionInfo queries GET /session-info.
func (c *BackendClient) SessionInfo(ctx context.Context) (*SessionInfo, error) {
	var info SessionInfo
	if err := c.do(ctx, http.MethodGet, "/session-info", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SessionUser validates userID against GET /session_user. Any 2xx means the session is valid.
func (c *BackendClient) SessionUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodGet, "/session_user", url.Values{"user_id": {userID}}, nil, nil)
}

// Chat sends one conversational turn.
func (c *BackendClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreatePlaylist asks the backend to build a playlist from the conversation so far.
func (c *BackendClient) CreatePlaylist(ctx context.Context, userID string) (*PlaylistResponse, error) {
	body := map[string]string{"user_id": userID}

	var resp PlaylistResponse
	if err := c.do(ctx, http.MethodPost, "/create-playlist", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MoodResult fetches the last stored result for userID from GET /moodresult.
func (c *BackendClient) MoodResult(ctx context.Context, userID string) (*MoodResultResponse, error) {
	var resp MoodResultResponse
	if err := c.do(ctx, http.MethodGet, "/moodresult", url.Values{"user_id": {userID}}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout tears down the server-side session.
func (c *BackendClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/logout", nil, nil, nil)
}
