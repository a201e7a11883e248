// Package server provides the loopback HTTP server used while the user logs in through the system browser.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [ChiRouter] implements it
// with go-chi, installing request IDs and panic recovery; [RequestLogger] logs each request.
//
// # Callback Server
//
// [CallbackServer] plays the part of the app origin for the login window:
//   - POST /message receives {"user_id": "..."} and fans it out to subscribers (the cross-window channel)
//   - GET /callback is where the backend redirects after the provider; the URL is recorded as the
//     current [Window] location so a redirect poll can read it
//   - GET /cancel marks the current window closed
//
// Only one [Window] is live at a time; [CallbackServer.NewWindow] closes the previous one.
// Until the browser lands on /callback, [Window.Location] returns [ErrLocationUnavailable],
// which pollers must treat as "not yet" rather than as a failure.
package server
