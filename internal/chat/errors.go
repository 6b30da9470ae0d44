// Package chat implements the session-scoped conversation state machine:
// per-session transcripts, the submit pipeline that talks to the completion
// endpoint and the chat log, and the registry of active sessions.
//
// This file centralizes service-level error values so they can be returned
// consistently and mapped to HTTP results at the handler layer.
package chat

import "errors"

var (
	// ErrEmptyMessage is returned when a submitted message is blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a submitted message exceeds the configured
	// maximum rune count.
	ErrTooLong = errors.New("message too long")

	// ErrSessionNotFound indicates the session token is unknown, expired, or
	// was discarded by logout. The caller must authenticate again.
	ErrSessionNotFound = errors.New("session not found")
)
