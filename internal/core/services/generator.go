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

// Retriever finds the chunks most similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) (domain.RetrievalResult, error)
}

// GeneratorConfig controls retrieval depth and sampling.
type GeneratorConfig struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	Temperature float64

	// MaxTokens caps the answer length. Zero leaves it to the provider.
	MaxTokens int
}

// DefaultGeneratorConfig returns the generator defaults.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		TopK:        4,
		Temperature: 0.7,
	}
}

// Generator answers a question from retrieved context with a single model call.
type Generator struct {
	retriever Retriever
	llm       driven.LLMService
	prompts   driven.PromptStore
	cfg       GeneratorConfig
}

// NewGenerator creates an answer generator.
func NewGenerator(retriever Retriever, llm driven.LLMService, prompts driven.PromptStore, cfg GeneratorConfig) *Generator {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultGeneratorConfig().TopK
	}
	return &Generator{retriever: retriever, llm: llm, prompts: prompts, cfg: cfg}
}

// Answer retrieves context for question and asks the model once. The
// returned sources are the hits that made it into the prompt; an empty
// corpus yields an empty context block, not an error.
func (g *Generator) Answer(ctx context.Context, question string, summary domain.MemorySummary) (domain.Answer, error) {
	hits, err := g.retriever.Search(ctx, question, g.cfg.TopK)
	if err != nil {
		if !errors.Is(err, domain.ErrRetrievalUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
		}
		return domain.Answer{}, err
	}

	sources := usableHits(hits)
	messages, err := g.buildMessages(question, summary, sources)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrGenerationService, err)
	}

	logger.Debug("Generating answer with %d context chunks", len(sources))
	reply, err := g.llm.Chat(ctx, messages, driven.ChatOptions{
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %w", domain.ErrGenerationService, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return domain.Answer{}, fmt.Errorf("%w: model returned an empty reply", domain.ErrGenerationService)
	}

	return domain.Answer{Text: reply, Sources: sources}, nil
}

// buildMessages lays out the prompt: persona and context as the system
// message, the summary as a second system message when present, then the
// question.
func (g *Generator) buildMessages(question string, summary domain.MemorySummary, hits domain.RetrievalResult) ([]driven.ChatMessage, error) {
	persona, err := g.prompts.Load(driven.PromptPersona)
	if err != nil {
		return nil, err
	}
	questionTmpl, err := g.prompts.Load(driven.PromptQuestion)
	if err != nil {
		return nil, err
	}

	messages := []driven.ChatMessage{{
		Role:    driven.RoleSystem,
		Content: strings.TrimRight(persona, "\n") + "\n----\n" + ContextBlock(hits) + "\n----",
	}}

	if !summary.IsEmpty() {
		summaryTmpl, err := g.prompts.Load(driven.PromptSummaryContext)
		if err != nil {
			return nil, err
		}
		messages = append(messages, driven.ChatMessage{
			Role:    driven.RoleSystem,
			Content: fmt.Sprintf(summaryTmpl, summary.String()),
		})
	}

	messages = append(messages, driven.ChatMessage{
		Role:    driven.RoleUser,
		Content: fmt.Sprintf(questionTmpl, question),
	})
	return messages, nil
}

// ContextBlock joins chunk texts in order, each tagged with its source.
func ContextBlock(hits domain.RetrievalResult) string {
	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		parts = append(parts, "[source: "+hit.Chunk.SourcePath+"]\n"+hit.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

// usableHits drops the empty-corpus placeholder and blank chunks.
func usableHits(hits domain.RetrievalResult) domain.RetrievalResult {
	out := make(domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Chunk.IsPlaceholder() || strings.TrimSpace(hit.Chunk.Text) == "" {
			continue
		}
		out = append(out, hit)
	}
	return out
}
