package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrPopupBlocked     = fmt.Errorf("authentication window was blocked")
	ErrAuthCancelled    = fmt.Errorf("authentication cancelled")
	ErrAuthTimeout      = fmt.Errorf("authentication timed out")
	ErrAuthPending      = fmt.Errorf("authentication already in progress")
	ErrSessionExpired   = fmt.Errorf("session expired")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrUnauthorized     = fmt.Errorf("unauthorized")

	// Chat and playlist errors
	ErrEmptyMessage             = fmt.Errorf("message is empty")
	ErrChatBusy                 = fmt.Errorf("a message is already being processed")
	ErrInsufficientInteractions = fmt.Errorf("not enough interactions to create a playlist")
	ErrPlaylistFailed           = fmt.Errorf("playlist creation failed")
	ErrNoResult                 = fmt.Errorf("no mood result available")

	// API and service errors
	ErrConnection         = fmt.Errorf("connection failed")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
