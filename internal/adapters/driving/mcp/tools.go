package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/guru-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the corpus"`
	SessionID string `json:"session_id,omitempty" jsonschema:"continue an existing conversation; omit to start a new one"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	SessionID string         `json:"session_id"`
	Turn      int            `json:"turn"`
	Answer    string         `json:"answer"`
	Sources   []SourceOutput `json:"sources"`
	Warning   string         `json:"warning,omitempty"`
}

// SourceOutput is one retrieved chunk behind an answer.
type SourceOutput struct {
	Path    string  `json:"path"`
	ChunkID string  `json:"chunk_id"`
	Score   float64 `json:"score"`
	Text    string  `json:"text,omitempty"`
}

// EndSessionInput is the input schema for the end_session tool.
type EndSessionInput struct {
	SessionID string `json:"session_id" jsonschema:"the session to end"`
}

// EndSessionOutput is the output schema for the end_session tool.
type EndSessionOutput struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
	Summary   string `json:"summary,omitempty"`
}

// CorpusStatsInput is the (empty) input schema for the corpus_stats tool.
type CorpusStatsInput struct{}

// CorpusStatsOutput is the output schema for the corpus_stats tool.
type CorpusStatsOutput struct {
	Directory      string         `json:"directory"`
	Documents      int            `json:"documents"`
	Chunks         int            `json:"chunks"`
	Tokens         int            `json:"tokens"`
	MaxChunkTokens int            `json:"max_chunk_tokens"`
	Empty          bool           `json:"empty"`
	PerSource      []SourceChunks `json:"per_source"`
	Skipped        []string       `json:"skipped,omitempty"`
}

// SourceChunks is the chunk count of one source file.
type SourceChunks struct {
	Path   string `json:"path"`
	Chunks int    `json:"chunks"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "ask",
		Description: "Answer a question from the indexed documents. Pass the returned " +
			"session_id with follow-up questions to keep the conversation context. " +
			"Each call without a session_id indexes the corpus for a new conversation; " +
			"only the most recently used conversations stay open, older ones are ended.",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "end_session",
		Description: "End a conversation started by ask and release its index",
	}, s.handleEndSession)

	if s.ports.Corpus != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "corpus_stats",
			Description: "Report how the documents are chunked, without calling any model",
		}, s.handleCorpusStats)
	}
}

// handleAsk answers one question, starting a session when none is given.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if input.Question == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	var (
		session driving.Session
		err     error
	)
	if input.SessionID == "" {
		session, err = s.startSession(ctx)
	} else {
		session, err = s.session(input.SessionID)
	}
	if err != nil {
		return nil, AskOutput{}, err
	}

	res, err := session.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	out := AskOutput{
		SessionID: session.ID(),
		Turn:      res.Turn.Seq,
		Answer:    res.Answer.Text,
		Sources:   make([]SourceOutput, 0, len(res.Answer.Sources)),
	}
	for _, hit := range res.Answer.Sources {
		if hit.Chunk.IsPlaceholder() {
			continue
		}
		out.Sources = append(out.Sources, SourceOutput{
			Path:    filesystem.DisplayPath(s.ports.CorpusDirectory, hit.Chunk.SourcePath),
			ChunkID: hit.Chunk.ID,
			Score:   hit.Score,
			Text:    hit.Chunk.Text,
		})
	}

	switch {
	case res.Warning != nil:
		out.Warning = res.Warning.Error()
	case res.Turn.Seq == 1 && session.Warning() != nil:
		out.Warning = session.Warning().Error()
	}

	return nil, out, nil
}

// handleEndSession ends a session and forgets it.
func (s *Server) handleEndSession(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EndSessionInput,
) (*mcp.CallToolResult, EndSessionOutput, error) {
	sess, ok := s.removeSession(input.SessionID)
	if !ok {
		return nil, EndSessionOutput{}, fmt.Errorf("%w: %s", ErrUnknownSession, input.SessionID)
	}

	if err := sess.End(ctx); err != nil {
		return nil, EndSessionOutput{}, err
	}

	return nil, EndSessionOutput{
		SessionID: sess.ID(),
		Turns:     len(sess.Turns()),
		Summary:   sess.Summary().String(),
	}, nil
}

// handleCorpusStats reports corpus statistics.
func (s *Server) handleCorpusStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ CorpusStatsInput,
) (*mcp.CallToolResult, CorpusStatsOutput, error) {
	stats, err := s.ports.Corpus.Inspect(ctx, s.ports.CorpusDirectory)
	if err != nil {
		return nil, CorpusStatsOutput{}, err
	}
	return nil, toStatsOutput(stats), nil
}

func toStatsOutput(stats *domain.CorpusStats) CorpusStatsOutput {
	out := CorpusStatsOutput{
		Directory:      stats.Directory,
		Documents:      stats.Documents,
		Chunks:         stats.Chunks,
		Tokens:         stats.Tokens,
		MaxChunkTokens: stats.MaxChunkTokens,
		Empty:          stats.Empty,
		PerSource:      make([]SourceChunks, 0, len(stats.PerSource)),
		Skipped:        stats.Skipped,
	}
	for path, n := range stats.PerSource {
		out.PerSource = append(out.PerSource, SourceChunks{
			Path:   filesystem.DisplayPath(stats.Directory, path),
			Chunks: n,
		})
	}
	sort.Slice(out.PerSource, func(i, j int) bool {
		return out.PerSource[i].Path < out.PerSource[j].Path
	})
	return out
}
