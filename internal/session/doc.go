// Package session owns the client side of session persistence and backend verification.
//
// [Storage] combines the durable session record with short-lived flags (auth in progress) and
// applies the local validity window. [Verifier] asks the backend whether an identity is still
// valid, using either /session-info or the legacy /session_user endpoint.
//
// Local validity never grants access on its own; it only allows the coordinator to attempt an
// optimistic verification on startup.
package session
