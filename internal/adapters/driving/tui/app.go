package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/guru-cli/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	chatView    *chat.View
	currentView messages.ViewType

	// quitting is set once the session end has been requested.
	quitting bool

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	chatView := chat.NewView(s, km, ports.Sessions, ports.CorpusDirectory)
	if ports.ShowSources {
		chatView.Transcript().SetShowSources(true)
	}

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		chatView:    chatView,
		currentView: messages.ViewChat,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model. It starts building the session.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("guru"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.chatView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case messages.SessionEnded:
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, tea.Quit

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.Quit:
		return a, a.quit()

	case messages.ErrorOccurred:
		a.err = msg.Err
	}

	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if keymap.Matches(msg.String(), a.keymap.Quit) {
		return a, a.quit()
	}

	if keymap.Matches(msg.String(), a.keymap.Help) {
		if a.currentView == messages.ViewHelp {
			a.currentView = messages.ViewChat
		} else {
			a.currentView = messages.ViewHelp
		}
		return a, nil
	}

	if a.currentView == messages.ViewHelp {
		if keymap.Matches(msg.String(), a.keymap.Back) {
			a.currentView = messages.ViewChat
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// quit ends the session once; the resulting SessionEnded message exits.
func (a *App) quit() tea.Cmd {
	if a.quitting {
		return nil
	}
	a.quitting = true
	return a.chatView.End()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.currentView == messages.ViewHelp {
		return a.viewHelp()
	}
	return a.chatView.View()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-10s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("  Type EXIT to end the chat.\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to chat"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Session returns the running session, or nil before it has started.
func (a *App) Session() driving.Session {
	return a.chatView.Session()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its window size.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
}
