// Spotify Web API client used to enrich mood results with playlist metadata
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/desertthunder/moodtunes/internal/shared"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
}

// Owner is the user owning a playlist.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyPlaylistTracks is the paged track list embedded in a playlist.
type SpotifyPlaylistTracks struct {
	Total int                    `json:"total"`
	Items []SpotifyPlaylistTrack `json:"items"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Owner        Owner                 `json:"owner"`
	Public       bool                  `json:"public"`
	Tracks       SpotifyPlaylistTracks `json:"tracks"`
	Images       []SpotifyImage        `json:"images"`
	ExternalURLs externalURLs          `json:"external_urls"`
	URI          string                `json:"uri"`
}

// ArtistNames returns a comma separated artist list for t.
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// SpotifyService reads public playlist metadata using the client credentials grant.
//
// No user authorization is involved: the backend owns the user's Spotify account link, the
// client only needs app-level access to describe the resulting playlist.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewSpotifyService creates a service from config. The returned client refreshes its app token automatically.
func NewSpotifyService(ctx context.Context, config shared.SpotifyConfig, logger *log.Logger) (*SpotifyService, error) {
	if config.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrMissingConfig)
	}
	if config.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_secret", shared.ErrMissingConfig)
	}

	cc := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     spotifyTokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return newSpotifyService(spotifyBaseURL, cc.Client(ctx), logger), nil
}

func newSpotifyService(baseURL string, client *http.Client, logger *log.Logger) *SpotifyService {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &SpotifyService{
		baseURL:    baseURL,
		httpClient: client,
		logger:     shared.WithLogger(logger, "component", "spotify"),
	}
}

// Name returns the service name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConnection, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("spotify %s: %w", endpoint, shared.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("spotify %s: %w", endpoint, shared.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Playlist retrieves a playlist by ID, including the first page of tracks.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	s.logger.Debug("fetching playlist", "id", playlistID)

	var playlist SpotifyPlaylist
	query := url.Values{"fields": {"id,name,description,owner,public,images,external_urls,uri,tracks(total,items(added_at,track(id,name,duration_ms,artists(id,name))))"}}
	if err := s.doRequest(ctx, "/playlists/"+url.PathEscape(playlistID), query, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistFromURL resolves a playlist URL, URI or bare ID and fetches it.
func (s *SpotifyService) PlaylistFromURL(ctx context.Context, raw string) (*SpotifyPlaylist, error) {
	id, ok := PlaylistID(raw)
	if !ok {
		return nil, fmt.Errorf("%w: not a spotify playlist: %q", shared.ErrInvalidArgument, raw)
	}
	return s.Playlist(ctx, id)
}
