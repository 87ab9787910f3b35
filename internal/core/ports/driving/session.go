package driving

import (
	"context"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// SessionService starts conversational sessions over a corpus.
type SessionService interface {
	// StartSession loads and chunks the corpus directory and builds its index.
	// An empty corpus is not an error: the session starts and its Warning
	// returns a *domain.CorpusEmptyWarning.
	StartSession(ctx context.Context, corpusDirectory string) (Session, error)
}

// Session answers questions one at a time while keeping conversation memory.
type Session interface {
	// ID returns the unique session identifier.
	ID() string

	// Ask answers one question. Per-turn failures are reported in
	// AskResult.Warning, not as an error; the error return is reserved for
	// questions asked after End.
	Ask(ctx context.Context, question string) (domain.AskResult, error)

	// End terminates the session and releases its index.
	End(ctx context.Context) error

	// Warning returns the advisory raised at session start, or nil.
	Warning() error

	// State returns the lifecycle state.
	State() domain.SessionState

	// Turns returns a copy of the recorded turns.
	Turns() []domain.ConversationTurn

	// Summary returns the current memory summary.
	Summary() domain.MemorySummary
}

// CorpusService inspects a corpus without starting a session.
type CorpusService interface {
	// Inspect loads and chunks the corpus directory and reports statistics.
	Inspect(ctx context.Context, corpusDirectory string) (*domain.CorpusStats, error)
}

// HistoryService reads persisted transcripts.
type HistoryService interface {
	// Sessions lists recent sessions, most recent first.
	Sessions(ctx context.Context, limit int) ([]domain.SessionRecord, error)

	// Turns returns the turns of one session.
	Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error)
}
