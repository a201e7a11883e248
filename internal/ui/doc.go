// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through the MoodTunes flow:
//  1. [LoginView] : Start a Spotify login and wait for it to complete
//  2. [ChatView] : Talk about your mood until enough interactions are collected
//  3. [ResultView] : Show the detected mood, the playlist link and its tracks
//
// Navigation follows the auth coordinator's events, which arrive through a channel and are turned
// into [Msg] values. The view moves to the result exactly once when the chat engine reports the
// conversation finished.
//
// Keyboard navigation uses enter to act, pgup/pgdn to scroll, o/r on the result and esc to quit,
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
