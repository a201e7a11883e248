// Package chat implements the conversation that leads to a mood playlist.
//
// The [Engine] keeps the transcript and the backend-authoritative interaction count. Once the
// count reaches the threshold it asks the backend for a playlist and marks the conversation
// finished. It never navigates; views watch [models.ChatState.IsFinished].
package chat
