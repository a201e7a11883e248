// Package models defines the entities exchanged between the MoodTunes client components.
//
// The package contains two categories of types:
//
// 1. Conversation types, owned by the chat engine:
//   - [Message] : One transcript entry with a [Role]
//   - [ChatState] : Snapshot of the transcript, counter, loading and result fields
//   - [MoodResult] : The mood/playlist pair, also cached per identity
//
// 2. Session types, owned by the auth coordinator:
//   - [SessionRecord] : Persisted identity + timestamp used for optimistic restore
//
// Types here carry no behavior beyond small validity helpers; persistence lives in the
// repositories package and state transitions in the auth and chat packages.
package models
