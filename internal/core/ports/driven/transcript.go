package driven

import (
	"context"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// TranscriptStore persists sessions, their turns and their latest summary.
// It is optional; sessions work in memory without it.
type TranscriptStore interface {
	// SaveSession creates or updates a session record.
	SaveSession(ctx context.Context, session domain.SessionRecord) error

	// AppendTurn records one turn of a session.
	AppendTurn(ctx context.Context, sessionID string, turn domain.ConversationTurn) error

	// SaveSummary replaces the stored summary of a session.
	SaveSummary(ctx context.Context, sessionID string, summary domain.MemorySummary) error

	// ListSessions returns sessions, most recent first, at most limit entries.
	ListSessions(ctx context.Context, limit int) ([]domain.SessionRecord, error)

	// Turns returns the turns of a session in order.
	// Returns domain.ErrNotFound if the session does not exist.
	Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)

	// Close releases resources.
	Close() error
}
