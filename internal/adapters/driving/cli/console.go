package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/guru-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

// Speaker is the name the assistant answers under.
const Speaker = "Marketing Guru"

const banner = `
  ██████  ██    ██ ██████  ██    ██
 ██       ██    ██ ██   ██ ██    ██
 ██   ███ ██    ██ ██████  ██    ██
 ██    ██ ██    ██ ██   ██ ██    ██
  ██████   ██████  ██   ██  ██████
`

const (
	greeting = "Hello! I'm Marketing Guru, please let me know how I can help you! " +
		"I can answer questions or generate content relating to the data you have given me."
	exitHint = "To exit, please type EXIT as your response."
	farewell = "Thank you for our chat!"
	prompt   = "Send message: "
)

// console writes REPL output. Colours are dropped when the writer is not a
// terminal. Writes are serialised so watch notices can interleave safely.
type console struct {
	mu  sync.Mutex
	out io.Writer

	warning lipgloss.Style
	prompt  lipgloss.Style
	speaker lipgloss.Style
	muted   lipgloss.Style
}

func newConsole(out io.Writer) *console {
	r := lipgloss.NewRenderer(out)
	return &console{
		out:     out,
		warning: r.NewStyle().Foreground(lipgloss.Color("1")),
		prompt:  r.NewStyle().Foreground(lipgloss.Color("10")),
		speaker: r.NewStyle().Foreground(lipgloss.Color("6")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (c *console) println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

func (c *console) printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, a...)
}

func (c *console) intro(warning error) {
	c.printf("%s\n", banner)
	c.println(greeting)
	c.println()
	if warning != nil {
		c.println(c.warning.Render(warning.Error()))
		c.println()
	}
	c.println(exitHint)
	c.println()
}

func (c *console) askPrompt() {
	c.printf("%s", c.prompt.Render(prompt))
}

// answer prints one reply. Sources are listed when showSources is set.
func (c *console) answer(res domain.AskResult, root string, showSources bool) {
	c.println()
	c.println(c.speaker.Render(Speaker+":"), res.Answer.Text)
	if res.Warning != nil {
		c.println(c.warning.Render("Warning: " + res.Warning.Error()))
	}
	if showSources {
		for _, src := range sourcePaths(res.Answer.Sources, root) {
			c.println(c.muted.Render("  source: " + src))
		}
	}
	c.println()
}

func (c *console) notice(change domain.CorpusChange, root string) {
	c.println()
	c.println(c.warning.Render(fmt.Sprintf("Corpus changed: %s %s (restart the chat to pick it up)",
		filesystem.DisplayPath(root, change.URI), change.Type)))
}

// sourcePaths returns the distinct source paths of a retrieval, in rank order.
func sourcePaths(hits domain.RetrievalResult, root string) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, hit := range hits {
		if hit.Chunk.IsPlaceholder() {
			continue
		}
		p := filesystem.DisplayPath(root, hit.Chunk.SourcePath)
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}
	return paths
}
