// Package transcript renders the scrolling conversation in the TUI.
package transcript

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/styles"
)

// Kind identifies who an entry belongs to.
type Kind int

const (
	// KindUser is a question.
	KindUser Kind = iota
	// KindAssistant is an answer.
	KindAssistant
	// KindNotice is informational text such as the greeting.
	KindNotice
	// KindWarning is shown in the warning colour.
	KindWarning
)

// Entry is one block of the transcript.
type Entry struct {
	Kind    Kind
	Text    string
	Sources []string
}

// Transcript is a viewport over the rendered entries.
type Transcript struct {
	styles      *styles.Styles
	viewport    viewport.Model
	entries     []Entry
	speaker     string
	showSources bool
}

// New creates an empty transcript. speaker names the assistant.
func New(s *styles.Styles, speaker string) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &Transcript{
		styles:   s,
		viewport: viewport.New(80, 20),
		speaker:  speaker,
	}
}

// Update forwards scrolling messages to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// Append adds an entry and scrolls to the bottom.
func (t *Transcript) Append(e Entry) {
	t.entries = append(t.entries, e)
	t.refresh()
	t.viewport.GotoBottom()
}

// Entries returns a copy of the entries.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// SetShowSources toggles the source lines under answers.
func (t *Transcript) SetShowSources(show bool) {
	t.showSources = show
	t.refresh()
}

// ShowSources reports whether source lines are rendered.
func (t *Transcript) ShowSources() bool {
	return t.showSources
}

// SetDimensions resizes the viewport and re-wraps the text.
func (t *Transcript) SetDimensions(width, height int) {
	if height < 1 {
		height = 1
	}
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// ScrollUp scrolls up by half a page.
func (t *Transcript) ScrollUp() {
	t.viewport.HalfViewUp()
}

// ScrollDown scrolls down by half a page.
func (t *Transcript) ScrollDown() {
	t.viewport.HalfViewDown()
}

// AtBottom reports whether the last line is visible.
func (t *Transcript) AtBottom() bool {
	return t.viewport.AtBottom()
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.render())
}

func (t *Transcript) render() string {
	width := t.viewport.Width
	if width < 10 {
		width = 10
	}
	wrap := lipgloss.NewStyle().Width(width)

	blocks := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		var b strings.Builder
		switch e.Kind {
		case KindUser:
			b.WriteString(wrap.Render(t.styles.UserLabel.Render("You: ") + e.Text))
		case KindAssistant:
			b.WriteString(wrap.Render(t.styles.AssistantLabel.Render(t.speaker+": ") + e.Text))
			if t.showSources {
				for _, src := range e.Sources {
					b.WriteString("\n" + t.styles.Muted.Render("  source: "+src))
				}
			}
		case KindWarning:
			b.WriteString(t.styles.Warning.Render(wrap.Render(e.Text)))
		case KindNotice:
			b.WriteString(wrap.Render(e.Text))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
