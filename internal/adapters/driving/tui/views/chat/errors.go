package chat

import "errors"

// Error definitions for the chat view.
var (
	// ErrNoSessionService indicates that no session service was provided.
	ErrNoSessionService = errors.New("session service is required")
)
