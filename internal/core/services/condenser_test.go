package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

func turn(seq int, q, a string) domain.ConversationTurn {
	return domain.ConversationTurn{Seq: seq, Question: q, Answer: a}
}

func TestCondenser_Updated(t *testing.T) {
	llm := newEchoLLM()
	c := NewCondenser(llm, newMockPromptStore(), nil, DefaultCondenserConfig())

	mem, res := c.Update(context.Background(), domain.Memory{}, turn(1, "What is EcoWipe?", "A paper towel."))

	assert.Equal(t, CondenseUpdated, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Equal(t, domain.MemorySummary("Summary of: Human: What is EcoWipe?\nAI: A paper towel."), mem.Summary)
	assert.Empty(t, mem.Pending)
	assert.Zero(t, mem.Failures)

	require.Equal(t, 1, llm.callCount())
	prompt := llm.lastCall()[0]
	assert.Equal(t, driven.RoleUser, prompt.Role)
	assert.Contains(t, prompt.Content, "SUMMARISE in 384 words.")
	assert.Contains(t, prompt.Content, "CURRENT: \n")
}

func TestCondenser_PriorSummaryIncluded(t *testing.T) {
	llm := newEchoLLM()
	c := NewCondenser(llm, newMockPromptStore(), nil, DefaultCondenserConfig())

	prior := domain.Memory{Summary: "The human asked about EcoWipe."}
	_, res := c.Update(context.Background(), prior, turn(2, "Is it compostable?", "Yes."))

	require.Equal(t, CondenseUpdated, res.Outcome)
	assert.Contains(t, llm.lastCall()[0].Content, "CURRENT: The human asked about EcoWipe.")
}

func TestCondenser_RetainedThenReset(t *testing.T) {
	llm := newFailingLLM(errors.New("model overloaded"))
	c := NewCondenser(llm, newMockPromptStore(), nil, CondenserConfig{MaxSummaryTokens: 100, RetryWindow: 1})

	prior := domain.Memory{Summary: "Earlier summary."}
	mem, res := c.Update(context.Background(), prior, turn(3, "q3", "a3"))

	assert.Equal(t, CondenseRetained, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrMemoryUpdate)
	assert.Equal(t, domain.MemorySummary("Earlier summary."), mem.Summary)
	require.Len(t, mem.Pending, 1)
	assert.Equal(t, 1, mem.Failures)

	mem, res = c.Update(context.Background(), mem, turn(4, "q4", "a4"))

	assert.Equal(t, CondenseReset, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrMemoryUpdate)
	assert.Equal(t, domain.Memory{}, mem)
}

func TestCondenser_PendingFoldedOnRecovery(t *testing.T) {
	llm := newFailingLLM(errors.New("timeout"))
	c := NewCondenser(llm, newMockPromptStore(), nil, DefaultCondenserConfig())

	mem, res := c.Update(context.Background(), domain.Memory{}, turn(1, "q1", "a1"))
	require.Equal(t, CondenseRetained, res.Outcome)

	llm.setReply(newEchoLLM().reply)
	mem, res = c.Update(context.Background(), mem, turn(2, "q2", "a2"))

	require.Equal(t, CondenseUpdated, res.Outcome)
	assert.Equal(t, domain.MemorySummary("Summary of: Human: q1\nAI: a1\nHuman: q2\nAI: a2"), mem.Summary)
	assert.Empty(t, mem.Pending)
	assert.Zero(t, mem.Failures)
}

func TestCondenser_ZeroRetryWindowResetsImmediately(t *testing.T) {
	c := NewCondenser(newFailingLLM(errors.New("down")), newMockPromptStore(), nil,
		CondenserConfig{MaxSummaryTokens: 10, RetryWindow: 0})

	mem, res := c.Update(context.Background(), domain.Memory{Summary: "old"}, turn(1, "q", "a"))
	assert.Equal(t, CondenseReset, res.Outcome)
	assert.True(t, mem.Summary.IsEmpty())
}

func TestCondenser_EmptyReplyIsFailure(t *testing.T) {
	llm := &mockLLM{reply: func([]driven.ChatMessage) (string, error) { return "  \n", nil }}
	c := NewCondenser(llm, newMockPromptStore(), nil, DefaultCondenserConfig())

	_, res := c.Update(context.Background(), domain.Memory{}, turn(1, "q", "a"))
	assert.Equal(t, CondenseRetained, res.Outcome)
}

func TestCondenser_MissingPrompt(t *testing.T) {
	prompts := newMockPromptStore()
	delete(prompts.prompts, driven.PromptSummarise)
	c := NewCondenser(newEchoLLM(), prompts, nil, DefaultCondenserConfig())

	_, res := c.Update(context.Background(), domain.Memory{}, turn(1, "q", "a"))
	assert.Equal(t, CondenseRetained, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrNotFound)
}

func TestCondenser_SummaryBounded(t *testing.T) {
	long := strings.Repeat("word ", 200)
	reply := func([]driven.ChatMessage) (string, error) { return long, nil }

	t.Run("with tokenizer", func(t *testing.T) {
		tok := newWordTokenizer()
		c := NewCondenser(&mockLLM{reply: reply}, newMockPromptStore(), tok, CondenserConfig{MaxSummaryTokens: 20})

		mem, res := c.Update(context.Background(), domain.Memory{}, turn(1, "q", "a"))
		require.Equal(t, CondenseUpdated, res.Outcome)
		assert.Len(t, tok.Encode(mem.Summary.String()), 20)
	})

	t.Run("without tokenizer", func(t *testing.T) {
		c := NewCondenser(&mockLLM{reply: reply}, newMockPromptStore(), nil, CondenserConfig{MaxSummaryTokens: 15})

		mem, _ := c.Update(context.Background(), domain.Memory{}, turn(1, "q", "a"))
		assert.Len(t, strings.Fields(mem.Summary.String()), 15)
	})

	t.Run("bound holds across many turns", func(t *testing.T) {
		tok := newWordTokenizer()
		c := NewCondenser(newEchoLLM(), newMockPromptStore(), tok, CondenserConfig{MaxSummaryTokens: 30})

		mem := domain.Memory{}
		for i := 1; i <= 20; i++ {
			var res CondenseResult
			mem, res = c.Update(context.Background(), mem, turn(i, "another long question about products", "another long answer"))
			require.Equal(t, CondenseUpdated, res.Outcome)
			assert.LessOrEqual(t, len(tok.Encode(mem.Summary.String())), 30)
		}
	})
}

func TestCondenseOutcome_String(t *testing.T) {
	assert.Equal(t, "updated", CondenseUpdated.String())
	assert.Equal(t, "retained", CondenseRetained.String())
	assert.Equal(t, "reset", CondenseReset.String())
	assert.Equal(t, "unknown", CondenseOutcome(9).String())
}

func TestFormatTurns(t *testing.T) {
	assert.Empty(t, FormatTurns(nil))
	assert.Equal(t, "Human: hi\nAI: hello\nHuman: bye\nAI: ",
		FormatTurns([]domain.ConversationTurn{turn(1, "hi", "hello"), turn(2, "bye", "")}))
}

func TestGrounding(t *testing.T) {
	assert.Empty(t, Grounding(domain.Memory{}))
	assert.Equal(t, domain.MemorySummary("sum"), Grounding(domain.Memory{Summary: "sum"}))

	pending := []domain.ConversationTurn{turn(1, "q", "a")}
	assert.Equal(t, domain.MemorySummary("Human: q\nAI: a"), Grounding(domain.Memory{Pending: pending}))
	assert.Equal(t, domain.MemorySummary("sum\nHuman: q\nAI: a"),
		Grounding(domain.Memory{Summary: "sum", Pending: pending}))
}
