// Package auth coordinates login, logout and session verification for the MoodTunes client.
//
// # Coordinator
//
// [Coordinator] is a three-state machine (anonymous, auth pending, authenticated) that owns the
// identity. It composes a [Store] for the persisted record, a [Verifier] for backend confirmation
// and a [PopupController] for the login surface, and reports navigation and notifications as
// [Event] values to subscribers.
//
// Every 401 seen anywhere in the client is expected to funnel through [Coordinator.Logout].
//
// # Popup Controller
//
// [PopupController] owns at most one [Attempt]. A popup attempt runs four observers at once:
//   - the [MessageSource] subscription, resolving with the posted identity
//   - a closed poll, resolving as cancelled when the user closes the surface
//   - a redirect poll, resolving when the surface lands on a URL carrying ?user_id=
//   - a hard timeout, closing the surface and resolving as timed out
//
// Attempts settle once. The first resolver wins; the others are torn down before the settle
// callback runs. A redirect attempt runs no observers and waits for [Coordinator.ResumeRedirect].
//
// # Surfaces
//
// [BrowserOpener] opens the system browser against the loopback callback server;
// [TerminalNavigator] prints the login URL for headless sessions.
package auth
