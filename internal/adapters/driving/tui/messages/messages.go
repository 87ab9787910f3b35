// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
)

// SessionStarted carries the session built over the corpus.
type SessionStarted struct {
	Session driving.Session
	Err     error
}

// QuestionSubmitted is sent when the user presses enter on a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerReceived carries the result of one turn.
type AnswerReceived struct {
	Question string
	Result   domain.AskResult
	Err      error
}

// SessionEnded signals the session was terminated.
type SessionEnded struct {
	Err error
}

// ViewChanged is sent when switching between the chat and help screens.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which screen is currently active.
type ViewType int

const (
	// ViewChat is the conversation screen.
	ViewChat ViewType = iota
	// ViewHelp lists the keybindings.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
