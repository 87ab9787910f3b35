package domain

import "time"

// ConversationTurn is one question and the answer given to it.
// Turns are append-only; a failed turn is recorded with an empty answer.
type ConversationTurn struct {
	// Seq is the 1-based position of the turn in its session.
	Seq int

	Question string
	Answer   string

	// AskedAt is when the question was received.
	AskedAt time.Time
}

// MemorySummary is the condensed narrative of a conversation.
type MemorySummary string

// String returns the summary text.
func (s MemorySummary) String() string {
	return string(s)
}

// IsEmpty reports whether there is no remembered conversation.
func (s MemorySummary) IsEmpty() bool {
	return len(s) == 0
}

// Memory is the state carried from one turn to the next.
// Only Summary reaches the answer generator; Pending holds turns whose
// condensation failed and that will be folded into the next attempt.
type Memory struct {
	Summary MemorySummary
	Pending []ConversationTurn

	// Failures counts consecutive failed condensations.
	Failures int
}

// Answer is the generator's reply and the chunks it was grounded on.
type Answer struct {
	Text    string
	Sources RetrievalResult
}

// AskResult is returned for every question asked in a session.
type AskResult struct {
	// Turn is the recorded turn.
	Turn ConversationTurn

	// Answer holds the text shown to the user. On a failed turn it is an
	// apology and Turn.Answer is empty.
	Answer Answer

	// Warning carries a per-turn degradation (retrieval, generation or
	// memory failure). Nil on a clean turn.
	Warning error
}

// SessionState is the lifecycle state of a session.
type SessionState int

const (
	// SessionIdle is a started session with no questions yet.
	SessionIdle SessionState = iota

	// SessionActive is a session that has answered at least one question.
	SessionActive

	// SessionTerminated is a session that has been ended.
	SessionTerminated
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionActive:
		return "active"
	case SessionTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// SessionRecord describes a persisted session.
type SessionRecord struct {
	ID              string
	CorpusDirectory string
	StartedAt       time.Time

	// EndedAt is zero while the session is running.
	EndedAt time.Time

	// Summary is the last stored memory summary.
	Summary MemorySummary
}
