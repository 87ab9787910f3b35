package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

// CondenseOutcome tags the result of a memory update.
type CondenseOutcome int

const (
	// CondenseUpdated means the summary now includes the new turn.
	CondenseUpdated CondenseOutcome = iota

	// CondenseRetained means summarisation failed inside the retry window.
	// The summary is unchanged and the turn waits in Memory.Pending.
	CondenseRetained

	// CondenseReset means summarisation kept failing past the retry window
	// and the memory was cleared.
	CondenseReset
)

// String returns the outcome name.
func (o CondenseOutcome) String() string {
	switch o {
	case CondenseUpdated:
		return "updated"
	case CondenseRetained:
		return "retained"
	case CondenseReset:
		return "reset"
	default:
		return "unknown"
	}
}

// CondenseResult reports how an update went. Err wraps
// domain.ErrMemoryUpdate unless the outcome is CondenseUpdated.
type CondenseResult struct {
	Outcome CondenseOutcome
	Err     error
}

// CondenserConfig bounds the running summary.
type CondenserConfig struct {
	// MaxSummaryTokens caps the summary length.
	MaxSummaryTokens int

	// RetryWindow is the number of consecutive failed updates tolerated
	// before the memory is reset.
	RetryWindow int

	// Temperature is used for the summarisation call.
	Temperature float64
}

// DefaultCondenserConfig returns the condenser defaults.
func DefaultCondenserConfig() CondenserConfig {
	return CondenserConfig{
		MaxSummaryTokens: 512,
		RetryWindow:      1,
	}
}

// Condenser folds conversation turns into a bounded running summary with
// one model call per turn.
type Condenser struct {
	llm       driven.LLMService
	prompts   driven.PromptStore
	tokenizer driven.Tokenizer
	cfg       CondenserConfig
}

// NewCondenser creates a condenser. tokenizer may be nil, in which case the
// summary is bounded by whitespace-separated words.
func NewCondenser(llm driven.LLMService, prompts driven.PromptStore, tokenizer driven.Tokenizer, cfg CondenserConfig) *Condenser {
	if cfg.MaxSummaryTokens <= 0 {
		cfg.MaxSummaryTokens = DefaultCondenserConfig().MaxSummaryTokens
	}
	if cfg.RetryWindow < 0 {
		cfg.RetryWindow = 0
	}
	return &Condenser{llm: llm, prompts: prompts, tokenizer: tokenizer, cfg: cfg}
}

// Update returns the memory after turn. It never fails: on error the prior
// summary is kept and the turn is parked in Pending, and once failures
// exceed the retry window the memory is reset to empty.
func (c *Condenser) Update(ctx context.Context, prior domain.Memory, turn domain.ConversationTurn) (domain.Memory, CondenseResult) {
	lines := make([]domain.ConversationTurn, 0, len(prior.Pending)+1)
	lines = append(lines, prior.Pending...)
	lines = append(lines, turn)

	summary, err := c.summarise(ctx, prior.Summary, lines)
	if err == nil {
		logger.Debug("Memory summary updated (%d chars)", len(summary))
		return domain.Memory{Summary: summary}, CondenseResult{Outcome: CondenseUpdated}
	}

	err = fmt.Errorf("%w: %w", domain.ErrMemoryUpdate, err)
	failures := prior.Failures + 1

	if failures > c.cfg.RetryWindow {
		logger.Warn("Conversation memory reset after %d failed updates: %v", failures, err)
		return domain.Memory{}, CondenseResult{Outcome: CondenseReset, Err: err}
	}

	logger.Warn("Conversation memory not updated, keeping turn %d for retry: %v", turn.Seq, err)
	return domain.Memory{
		Summary:  prior.Summary,
		Pending:  lines,
		Failures: failures,
	}, CondenseResult{Outcome: CondenseRetained, Err: err}
}

func (c *Condenser) summarise(ctx context.Context, prior domain.MemorySummary, turns []domain.ConversationTurn) (domain.MemorySummary, error) {
	tmpl, err := c.prompts.Load(driven.PromptSummarise)
	if err != nil {
		return "", fmt.Errorf("load summarise prompt: %w", err)
	}

	prompt := fmt.Sprintf(tmpl, c.maxWords(), prior.String(), FormatTurns(turns))
	reply, err := c.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleUser, Content: prompt},
	}, driven.ChatOptions{
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxSummaryTokens,
	})
	if err != nil {
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errors.New("empty summary")
	}
	return domain.MemorySummary(c.truncate(reply)), nil
}

// maxWords converts the token bound to the word count the prompt asks for.
func (c *Condenser) maxWords() int {
	return max(c.cfg.MaxSummaryTokens*3/4, 1)
}

// truncate cuts s to MaxSummaryTokens on a token boundary.
func (c *Condenser) truncate(s string) string {
	limit := c.cfg.MaxSummaryTokens
	if c.tokenizer == nil {
		words := strings.Fields(s)
		if len(words) <= limit {
			return s
		}
		return strings.Join(words[:limit], " ")
	}

	tokens := c.tokenizer.Encode(s)
	if len(tokens) <= limit {
		return s
	}
	return strings.TrimSpace(c.tokenizer.Decode(tokens[:limit]))
}

// FormatTurns renders turns as conversation lines for prompts.
func FormatTurns(turns []domain.ConversationTurn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Human: ")
		b.WriteString(t.Question)
		b.WriteString("\nAI: ")
		b.WriteString(t.Answer)
	}
	return b.String()
}

// Grounding returns the conversational context for the next answer: the
// summary, followed by any turns still waiting to be condensed.
func Grounding(mem domain.Memory) domain.MemorySummary {
	if len(mem.Pending) == 0 {
		return mem.Summary
	}
	pending := FormatTurns(mem.Pending)
	if mem.Summary.IsEmpty() {
		return domain.MemorySummary(pending)
	}
	return domain.MemorySummary(mem.Summary.String() + "\n" + pending)
}
