package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
)

// mockSessionService is a mock implementation of driving.SessionService.
type mockSessionService struct {
	mu      sync.Mutex
	started []*mockSession
	warning error
	err     error
}

func (m *mockSessionService) StartSession(_ context.Context, dir string) (driving.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := &mockSession{
		id:      fmt.Sprintf("session-%d", len(m.started)+1),
		dir:     dir,
		warning: m.warning,
	}
	m.started = append(m.started, sess)
	return sess, nil
}

// mockSession is a mock implementation of driving.Session that echoes
// every question back with a single source.
type mockSession struct {
	id      string
	dir     string
	warning error
	turns   []domain.ConversationTurn
	ended   int
	state   domain.SessionState
	askErr  error
}

func (m *mockSession) ID() string { return m.id }

func (m *mockSession) Ask(_ context.Context, question string) (domain.AskResult, error) {
	if m.askErr != nil {
		return domain.AskResult{}, m.askErr
	}
	if m.state == domain.SessionTerminated {
		return domain.AskResult{}, domain.ErrSessionTerminated
	}
	m.state = domain.SessionActive
	turn := domain.ConversationTurn{
		Seq:      len(m.turns) + 1,
		Question: question,
		Answer:   "answer to " + question,
	}
	m.turns = append(m.turns, turn)
	return domain.AskResult{
		Turn: turn,
		Answer: domain.Answer{
			Text: turn.Answer,
			Sources: domain.RetrievalResult{
				{Chunk: domain.Chunk{ID: "c1", DocumentID: "d1", SourcePath: m.dir + "/products.txt", Text: "EcoWipe"}, Score: 0.9},
				{Chunk: domain.Chunk{ID: "p", DocumentID: domain.PlaceholderDocumentID}, Score: 0.1},
			},
		},
	}, nil
}

func (m *mockSession) End(context.Context) error {
	m.ended++
	m.state = domain.SessionTerminated
	return nil
}

func (m *mockSession) Warning() error { return m.warning }

func (m *mockSession) State() domain.SessionState { return m.state }

func (m *mockSession) Turns() []domain.ConversationTurn {
	return append([]domain.ConversationTurn(nil), m.turns...)
}

func (m *mockSession) Summary() domain.MemorySummary {
	if len(m.turns) == 0 {
		return ""
	}
	return "The user asked about EcoWipe."
}

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	stats *domain.CorpusStats
	err   error
}

func (m *mockCorpusService) Inspect(_ context.Context, _ string) (*domain.CorpusStats, error) {
	return m.stats, m.err
}

// mockHistoryService is a mock implementation of driving.HistoryService.
type mockHistoryService struct {
	sessions []domain.SessionRecord
	turns    map[string][]domain.ConversationTurn
	err      error
}

func (m *mockHistoryService) Sessions(_ context.Context, _ int) ([]domain.SessionRecord, error) {
	return m.sessions, m.err
}

func (m *mockHistoryService) Turns(_ context.Context, id string) ([]domain.ConversationTurn, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.turns[id], nil
}
