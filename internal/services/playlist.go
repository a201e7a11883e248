package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const spotifyIDLength = 22

var playlistIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`spotify\.com/playlist/([a-zA-Z0-9]{22})`),
	regexp.MustCompile(`spotify:playlist:([a-zA-Z0-9]{22})`),
	regexp.MustCompile(`^([a-zA-Z0-9]{22})$`),
}

// PlaylistID extracts a Spotify playlist ID from a web URL, a spotify: URI or a bare ID.
//
// Returns false when nothing that looks like a playlist ID is found.
func PlaylistID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	for _, re := range playlistIDPatterns {
		if m := re.FindStringSubmatch(raw); len(m) > 1 {
			return m[1], true
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if seg == "playlist" && i+1 < len(segments) && len(segments[i+1]) == spotifyIDLength {
			return segments[i+1], true
		}
	}
	return "", false
}

// EmbedURL returns the embeddable player URL for a playlist ID.
func EmbedURL(playlistID string) string {
	if playlistID == "" {
		return ""
	}
	return fmt.Sprintf("https://open.spotify.com/embed/playlist/%s?utm_source=generator&theme=0", playlistID)
}

// OpenURL returns the canonical web URL for a playlist ID.
func OpenURL(playlistID string) string {
	if playlistID == "" {
		return ""
	}
	return "https://open.spotify.com/playlist/" + playlistID
}
