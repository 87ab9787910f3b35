package mcp

import (
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Sessions starts chat sessions. Required.
	Sessions driving.SessionService

	// Corpus reports corpus statistics. Optional.
	Corpus driving.CorpusService

	// History reads stored transcripts. Optional.
	History driving.HistoryService

	// CorpusDirectory is the directory every session is built over.
	CorpusDirectory string

	// MaxSessions caps the open sessions. Starting one more ends the least
	// recently used. Zero means DefaultMaxSessions.
	MaxSessions int
}

// DefaultMaxSessions is the open-session cap when Ports.MaxSessions is 0.
const DefaultMaxSessions = 8

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	if p.CorpusDirectory == "" {
		return ErrMissingCorpusDirectory
	}
	if p.MaxSessions < 0 {
		return ErrInvalidMaxSessions
	}
	return nil
}
