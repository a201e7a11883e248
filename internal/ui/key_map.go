package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	login   key.Binding
	resume  key.Binding
	cancel  key.Binding
	send    key.Binding
	open    key.Binding
	restart key.Binding
	logout  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "scroll up")),
		down:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "scroll down")),
		login:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "log in with Spotify")),
		resume:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "finish login")),
		cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel login")),
		send:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open playlist")),
		restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "start over")),
		logout:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "log out")),
		quit:    key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.send},
		{k.open, k.restart},
		{k.login, k.resume, k.cancel},
		{k.logout, k.quit},
	}
}
