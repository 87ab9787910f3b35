package tui

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("tui: session service is required")

// ErrMissingCorpusDirectory is returned when no corpus directory is set.
var ErrMissingCorpusDirectory = errors.New("tui: corpus directory is required")
