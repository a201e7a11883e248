// Package services contains HTTP clients for the remote systems the MoodTunes client talks to.
//
// # Backend
//
// [BackendClient] is the typed client for the mood-detection backend: login URL, session
// verification (/session-info and the legacy /session_user), chat turns, playlist creation,
// the stored mood result and logout. The client keeps backend cookies in a jar and throttles
// requests with a [rate.Limiter].
//
// # Spotify
//
// [SpotifyService] uses the client credentials grant to read playlist metadata for display.
// It is optional and only built when credentials are configured.
//
// # Playlist helpers
//
// [PlaylistID] accepts web URLs, spotify: URIs and bare IDs. [EmbedURL] builds the player URL.
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrConnection] : transport failure, request never got a response
//   - [shared.ErrUnauthorized] : HTTP 401, the session is gone
//   - [shared.ErrNotFound] : HTTP 404
//   - [shared.ErrServiceUnavailable] : HTTP 5xx
//   - [shared.ErrAPIRequest] : any other non-2xx status or an undecodable body
//
// Use [StatusCode] to recover the exact status from a backend error.
package services
