// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/guru-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
	"github.com/custodia-labs/guru-cli/internal/core/services"
)

// Speaker is the assistant's name in the transcript.
const Speaker = "Marketing Guru"

const (
	greeting = "Hello! I'm Marketing Guru, please let me know how I can help you! " +
		"I can answer questions or generate content relating to the data you have given me."
	exitHint = "To exit, please type EXIT as your response."
)

// chrome is the number of lines taken by the header, input and status bar.
const chrome = 7

// View is the conversation screen: transcript, question input and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	sessions  driving.SessionService
	session   driving.Session
	directory string
	ctx       context.Context

	width    int
	height   int
	ready    bool
	thinking bool
	err      error
}

// NewView creates a chat view over the corpus directory.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	sessions driving.SessionService,
	directory string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		transcript: transcript.New(s, Speaker),
		statusbar:  status.NewBar(s, km),
		sessions:   sessions,
		directory:  directory,
		ctx:        context.Background(),
		width:      80,
		height:     24,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor and the session build.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.startSession())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd

	case messages.SessionStarted:
		v.handleSessionStarted(msg)
		return v, nil

	case messages.AnswerReceived:
		return v, v.handleAnswer(msg)

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.ScrollUp):
		v.transcript.ScrollUp()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.ScrollDown):
		v.transcript.ScrollDown()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.ToggleSources):
		v.transcript.SetShowSources(!v.transcript.ShowSources())
		if v.transcript.ShowSources() {
			v.statusbar.SetMessage("sources on")
		} else {
			v.statusbar.SetMessage("")
		}
		return v, nil
	}

	if msg.Type == tea.KeyEnter {
		return v, v.submit()
	}

	if v.thinking {
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the typed question. EXIT ends the session.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.thinking {
		return nil
	}
	if services.IsExit(question) {
		v.input.Reset()
		return v.End()
	}
	if v.session == nil {
		return nil
	}

	v.input.Reset()
	v.input.Blur()
	v.thinking = true
	v.statusbar.SetState(status.StateThinking)
	v.transcript.Append(transcript.Entry{Kind: transcript.KindUser, Text: question})
	return v.ask(question)
}

func (v *View) startSession() tea.Cmd {
	sessions, ctx, dir := v.sessions, v.ctx, v.directory
	return func() tea.Msg {
		if sessions == nil {
			return messages.SessionStarted{Err: ErrNoSessionService}
		}
		sess, err := sessions.StartSession(ctx, dir)
		return messages.SessionStarted{Session: sess, Err: err}
	}
}

func (v *View) ask(question string) tea.Cmd {
	sess, ctx := v.session, v.ctx
	return func() tea.Msg {
		res, err := sess.Ask(ctx, question)
		return messages.AnswerReceived{Question: question, Result: res, Err: err}
	}
}

// End terminates the session. The returned command yields SessionEnded.
func (v *View) End() tea.Cmd {
	sess, ctx := v.session, v.ctx
	v.statusbar.SetState(status.StateEnded)
	return func() tea.Msg {
		if sess == nil || sess.State() == domain.SessionTerminated {
			return messages.SessionEnded{}
		}
		return messages.SessionEnded{Err: sess.End(context.WithoutCancel(ctx))}
	}
}

func (v *View) handleSessionStarted(msg messages.SessionStarted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		v.transcript.Append(transcript.Entry{
			Kind: transcript.KindWarning,
			Text: "Could not start the session: " + msg.Err.Error(),
		})
		return
	}

	v.session = msg.Session
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.transcript.Append(transcript.Entry{Kind: transcript.KindNotice, Text: greeting})
	if w := msg.Session.Warning(); w != nil {
		v.transcript.Append(transcript.Entry{Kind: transcript.KindWarning, Text: w.Error()})
	}
	v.transcript.Append(transcript.Entry{Kind: transcript.KindNotice, Text: exitHint})
}

func (v *View) handleAnswer(msg messages.AnswerReceived) tea.Cmd {
	v.thinking = false
	focus := v.input.Focus()

	if msg.Err != nil {
		v.setError(msg.Err)
		return focus
	}

	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetTurns(msg.Result.Turn.Seq)
	v.transcript.Append(transcript.Entry{
		Kind:    transcript.KindAssistant,
		Text:    msg.Result.Answer.Text,
		Sources: v.sourcePaths(msg.Result.Answer.Sources),
	})
	if msg.Result.Warning != nil {
		v.transcript.Append(transcript.Entry{
			Kind: transcript.KindWarning,
			Text: "Warning: " + msg.Result.Warning.Error(),
		})
	}
	return focus
}

func (v *View) sourcePaths(hits domain.RetrievalResult) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, hit := range hits {
		if hit.Chunk.IsPlaceholder() {
			continue
		}
		p := filesystem.DisplayPath(v.directory, hit.Chunk.SourcePath)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	return paths
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("Guru") + v.styles.Muted.Render("  "+v.directory)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.transcript.SetDimensions(width, height-chrome)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Session returns the running session, or nil before it has started.
func (v *View) Session() driving.Session {
	return v.session
}

// Thinking reports whether a question is being answered.
func (v *View) Thinking() bool {
	return v.thinking
}

// Transcript returns the transcript component.
func (v *View) Transcript() *transcript.Transcript {
	return v.transcript
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.statusbar
}

// Input returns the question input.
func (v *View) Input() *input.QuestionInput {
	return v.input
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}
