package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.CorpusDirectory == "" {
		ports.CorpusDirectory = "/data"
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("starts a session and answers", func(t *testing.T) {
		svc := &mockSessionService{}
		server := newTestServer(t, &Ports{Sessions: svc})

		_, out, err := server.handleAsk(ctx, nil, AskInput{Question: "What is EcoWipe?"})

		require.NoError(t, err)
		assert.Equal(t, "session-1", out.SessionID)
		assert.Equal(t, 1, out.Turn)
		assert.Equal(t, "answer to What is EcoWipe?", out.Answer)
		require.Len(t, out.Sources, 1)
		assert.Equal(t, "products.txt", out.Sources[0].Path)
		assert.Equal(t, "c1", out.Sources[0].ChunkID)
		assert.Equal(t, 0.9, out.Sources[0].Score)
		assert.Empty(t, out.Warning)
		assert.Equal(t, 1, server.OpenSessions())
	})

	t.Run("continues an existing session", func(t *testing.T) {
		svc := &mockSessionService{}
		server := newTestServer(t, &Ports{Sessions: svc})

		_, first, err := server.handleAsk(ctx, nil, AskInput{Question: "one"})
		require.NoError(t, err)
		_, second, err := server.handleAsk(ctx, nil, AskInput{Question: "two", SessionID: first.SessionID})
		require.NoError(t, err)

		assert.Equal(t, first.SessionID, second.SessionID)
		assert.Equal(t, 2, second.Turn)
		assert.Len(t, svc.started, 1)
	})

	t.Run("unknown session", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "q", SessionID: "nope"})

		assert.ErrorIs(t, err, ErrUnknownSession)
	})

	t.Run("empty question", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}})

		_, _, err := server.handleAsk(ctx, nil, AskInput{})

		assert.Error(t, err)
		assert.Zero(t, server.OpenSessions())
	})

	t.Run("empty corpus warning on the first turn", func(t *testing.T) {
		svc := &mockSessionService{warning: &domain.CorpusEmptyWarning{Directory: "/data"}}
		server := newTestServer(t, &Ports{Sessions: svc})

		_, out, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		assert.Equal(t, domain.CorpusEmptyWarningMessage, out.Warning)
	})

	t.Run("session start failure", func(t *testing.T) {
		svc := &mockSessionService{err: domain.ErrEmbeddingService}
		server := newTestServer(t, &Ports{Sessions: svc})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	})
}

func TestServer_handleEndSession(t *testing.T) {
	ctx := context.Background()

	t.Run("ends and forgets the session", func(t *testing.T) {
		svc := &mockSessionService{}
		server := newTestServer(t, &Ports{Sessions: svc})
		_, asked, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})
		require.NoError(t, err)

		_, out, err := server.handleEndSession(ctx, nil, EndSessionInput{SessionID: asked.SessionID})

		require.NoError(t, err)
		assert.Equal(t, asked.SessionID, out.SessionID)
		assert.Equal(t, 1, out.Turns)
		assert.Equal(t, "The user asked about EcoWipe.", out.Summary)
		assert.Equal(t, 1, svc.started[0].ended)
		assert.Zero(t, server.OpenSessions())
	})

	t.Run("unknown session", func(t *testing.T) {
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}})

		_, _, err := server.handleEndSession(ctx, nil, EndSessionInput{SessionID: "nope"})

		assert.ErrorIs(t, err, ErrUnknownSession)
	})
}

func TestServer_handleCorpusStats(t *testing.T) {
	ctx := context.Background()

	t.Run("reports stats", func(t *testing.T) {
		corpus := &mockCorpusService{stats: &domain.CorpusStats{
			Directory: "/data",
			Documents: 2,
			Chunks:    3,
			Tokens:    900,
			PerSource: map[string]int{"/data/b.txt": 1, "/data/a.txt": 2},
		}}
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}, Corpus: corpus})

		_, out, err := server.handleCorpusStats(ctx, nil, CorpusStatsInput{})

		require.NoError(t, err)
		assert.Equal(t, 2, out.Documents)
		assert.Equal(t, []SourceChunks{{Path: "a.txt", Chunks: 2}, {Path: "b.txt", Chunks: 1}}, out.PerSource)
	})

	t.Run("inspect failure", func(t *testing.T) {
		corpus := &mockCorpusService{err: errors.New("disk gone")}
		server := newTestServer(t, &Ports{Sessions: &mockSessionService{}, Corpus: corpus})

		_, _, err := server.handleCorpusStats(ctx, nil, CorpusStatsInput{})

		assert.EqualError(t, err, "disk gone")
	})
}
