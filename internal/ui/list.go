package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/moodtunes/internal/formatter"
	"github.com/desertthunder/moodtunes/internal/services"
)

var (
	_ list.Item = trackItem{}
)

// trackItem wraps [services.SpotifyTrack] to implement [list.Item].
type trackItem struct {
	track services.SpotifyTrack
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.ArtistNames()
	if i.track.DurationMS > 0 {
		desc = fmt.Sprintf("%s • %s", desc, formatter.FormatDuration(i.track.DurationMS))
	}
	return desc
}

func trackItems(p *services.SpotifyPlaylist) []list.Item {
	items := make([]list.Item, 0, len(p.Tracks.Items))
	for _, t := range p.Tracks.Items {
		items = append(items, trackItem{track: t.Track})
	}
	return items
}
