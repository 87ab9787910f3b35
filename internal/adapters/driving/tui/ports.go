// Package tui provides an interactive terminal chat for guru.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports and settings the TUI needs.
type Ports struct {
	// Sessions starts the chat session.
	Sessions driving.SessionService

	// CorpusDirectory is the directory the session is built over.
	CorpusDirectory string

	// ShowSources lists source files under each answer from the start.
	ShowSources bool
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Sessions == nil {
		return ErrMissingSessionService
	}
	if p.CorpusDirectory == "" {
		return ErrMissingCorpusDirectory
	}
	return nil
}
