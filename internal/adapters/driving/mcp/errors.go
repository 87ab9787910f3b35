// Package mcp provides an MCP (Model Context Protocol) server adapter for guru.
// It lets AI assistants ask questions about the corpus through chat sessions.
package mcp

import "errors"

// ErrMissingSessionService is returned when the session service is not provided.
var ErrMissingSessionService = errors.New("mcp: session service is required")

// ErrMissingCorpusDirectory is returned when no corpus directory is set.
var ErrMissingCorpusDirectory = errors.New("mcp: corpus directory is required")

// ErrUnknownSession is returned for a session ID the server is not running.
var ErrUnknownSession = errors.New("mcp: unknown session")

// ErrInvalidMaxSessions is returned when the open-session cap is negative.
var ErrInvalidMaxSessions = errors.New("mcp: max sessions must not be negative")
