package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/moodtunes/internal/auth"
	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/services"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgAuthEvent MsgKind = iota
	MsgLoginDone
	MsgMessageSent
	MsgResultLoaded
	MsgTracksFetched
	MsgOpened
	MsgRedirectStarted
	MsgResumeDone
)

// authEventMsg is the constructor for [MsgAuthEvent]
func authEventMsg(e auth.Event) Msg {
	return Msg{kind: MsgAuthEvent, data: e}
}

// loginDoneMsg is the constructor for [MsgLoginDone]
func loginDoneMsg(err error) Msg {
	return Msg{kind: MsgLoginDone, data: err}
}

// messageSentMsg is the constructor for [MsgMessageSent]
func messageSentMsg(err error) Msg {
	return Msg{kind: MsgMessageSent, data: err}
}

// resultLoadedMsg is the constructor for [MsgResultLoaded]
func resultLoadedMsg(result models.MoodResult, ok bool) Msg {
	return Msg{
		kind: MsgResultLoaded,
		data: struct {
			result models.MoodResult
			ok     bool
		}{result, ok},
	}
}

// tracksFetchedMsg is the constructor for [MsgTracksFetched]
func tracksFetchedMsg(playlist *services.SpotifyPlaylist, err error) Msg {
	return Msg{
		kind: MsgTracksFetched,
		data: struct {
			playlist *services.SpotifyPlaylist
			err      error
		}{playlist, err},
	}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(err error) Msg {
	return Msg{kind: MsgOpened, data: err}
}

func errOf(m Msg) error {
	err, _ := m.data.(error)
	return err
}

// redirectStartedMsg is the constructor for [MsgRedirectStarted]
func redirectStartedMsg(url string) Msg {
	return Msg{kind: MsgRedirectStarted, data: url}
}

// resumeDoneMsg is the constructor for [MsgResumeDone]
func resumeDoneMsg(err error) Msg {
	return Msg{kind: MsgResumeDone, data: err}
}
