// Package repositories implements SQLite persistence for the client-side state.
//
// All tables are best-effort caches: every consumer must behave correctly when rows are missing.
//
// Key Implementations:
//   - [SessionRepository] : The single durable identity record (user id + timestamp)
//   - [FlagRepository] : Short-lived flags that expire after one auth flow (e.g. auth in progress)
//   - [MoodRepository] : Per-identity cache of the last mood/playlist result
//
// Timestamps are stored as unix milliseconds. Lookups of absent rows return an error wrapping
// [shared.ErrNotFound] so callers can distinguish "nothing stored" from storage failures.
package repositories
