package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
	"github.com/custodia-labs/guru-cli/internal/logger"
)

// Verify interface compliance.
var (
	_ driving.SessionService = (*SessionService)(nil)
	_ driving.Session        = (*ChatSession)(nil)
)

// DefaultApology is shown in place of an answer when a turn fails.
const DefaultApology = "Sorry, I couldn't come up with an answer just now. Please try asking again."

// SessionConfig groups the per-session settings.
type SessionConfig struct {
	Generator GeneratorConfig
	Condenser CondenserConfig

	// Apology replaces the answer on a failed turn.
	Apology string
}

// DefaultSessionConfig returns the session defaults.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Generator: DefaultGeneratorConfig(),
		Condenser: DefaultCondenserConfig(),
		Apology:   DefaultApology,
	}
}

// SessionService starts chat sessions: it loads and chunks the corpus,
// builds a private index and wires a generator and condenser around it.
type SessionService struct {
	sources   SourceFactory
	loader    *CorpusLoader
	splitter  Splitter
	builder   *IndexBuilder
	llm       driven.LLMService
	prompts   driven.PromptStore
	tokenizer driven.Tokenizer
	cfg       SessionConfig

	transcripts driven.TranscriptStore
	now         func() time.Time
}

// NewSessionService creates a session service.
func NewSessionService(
	sources SourceFactory,
	loader *CorpusLoader,
	splitter Splitter,
	builder *IndexBuilder,
	llm driven.LLMService,
	prompts driven.PromptStore,
	tokenizer driven.Tokenizer,
	cfg SessionConfig,
) *SessionService {
	if cfg.Apology == "" {
		cfg.Apology = DefaultApology
	}
	return &SessionService{
		sources:   sources,
		loader:    loader,
		splitter:  splitter,
		builder:   builder,
		llm:       llm,
		prompts:   prompts,
		tokenizer: tokenizer,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetTranscriptStore enables transcript persistence for new sessions.
func (s *SessionService) SetTranscriptStore(store driven.TranscriptStore) {
	s.transcripts = store
}

// StartSession prepares a session over corpusDirectory. Configuration and
// build failures abort; an empty corpus only sets the session warning.
func (s *SessionService) StartSession(ctx context.Context, corpusDirectory string) (driving.Session, error) {
	return s.Start(ctx, corpusDirectory)
}

// Start is StartSession returning the concrete session type.
func (s *SessionService) Start(ctx context.Context, corpusDirectory string) (*ChatSession, error) {
	docs, err := s.loader.Load(ctx, s.sources(corpusDirectory))
	if err != nil {
		return nil, err
	}

	chunks, warning := s.splitter.Split(docs)
	var sessionWarning error
	if warning != nil {
		warning.Directory = corpusDirectory
		sessionWarning = warning
		logger.Warn("%s (%s)", warning.Error(), corpusDirectory)
	}

	index, err := s.builder.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	sess := &ChatSession{
		id:          uuid.New().String(),
		directory:   corpusDirectory,
		startedAt:   s.now(),
		index:       index,
		generator:   NewGenerator(index, s.llm, s.prompts, s.cfg.Generator),
		condenser:   NewCondenser(s.llm, s.prompts, s.tokenizer, s.cfg.Condenser),
		apology:     s.cfg.Apology,
		warning:     sessionWarning,
		transcripts: s.transcripts,
		now:         s.now,
	}

	sess.persist(ctx, "save session", func(ctx context.Context, store driven.TranscriptStore) error {
		return store.SaveSession(ctx, sess.record())
	})

	logger.Info("Session %s started over %s (%d chunks)", sess.id, corpusDirectory, index.Len())
	return sess, nil
}

// ChatSession is one conversation over one index. Questions are answered
// strictly one at a time.
type ChatSession struct {
	id        string
	directory string
	startedAt time.Time
	index     *Index
	generator *Generator
	condenser *Condenser
	apology   string
	warning   error

	transcripts driven.TranscriptStore
	now         func() time.Time

	mu     sync.Mutex
	state  domain.SessionState
	memory domain.Memory
	turns  []domain.ConversationTurn
}

// ID returns the session identifier.
func (s *ChatSession) ID() string {
	return s.id
}

// Warning returns the empty-corpus warning, or nil.
func (s *ChatSession) Warning() error {
	return s.warning
}

// Index returns the session's index.
func (s *ChatSession) Index() *Index {
	return s.index
}

// State returns the lifecycle state.
func (s *ChatSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns a copy of the recorded turns.
func (s *ChatSession) Turns() []domain.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ConversationTurn(nil), s.turns...)
}

// Summary returns the current memory summary.
func (s *ChatSession) Summary() domain.MemorySummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Summary
}

// Ask answers question and records exactly one turn, whatever happens.
// A failed answer is replaced with an apology, the turn is recorded with
// an empty answer, and the cause is returned in AskResult.Warning. Memory
// is updated on every turn.
func (s *ChatSession) Ask(ctx context.Context, question string) (domain.AskResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.SessionTerminated {
		return domain.AskResult{}, domain.ErrSessionTerminated
	}
	s.state = domain.SessionActive

	turn := domain.ConversationTurn{
		Seq:      len(s.turns) + 1,
		Question: question,
		AskedAt:  s.now(),
	}
	logger.Debug("Turn %d: %q", turn.Seq, question)

	result := domain.AskResult{}
	answer, err := s.generator.Answer(ctx, question, Grounding(s.memory))
	if err != nil {
		logger.Warn("Turn %d failed: %v", turn.Seq, err)
		result.Answer = domain.Answer{Text: s.apology}
		result.Warning = err
	} else {
		turn.Answer = answer.Text
		result.Answer = answer
	}

	memory, condensed := s.condenser.Update(ctx, s.memory, turn)
	s.memory = memory
	if condensed.Err != nil {
		result.Warning = errors.Join(result.Warning, condensed.Err)
	}

	s.turns = append(s.turns, turn)
	result.Turn = turn

	s.persist(ctx, "append turn", func(ctx context.Context, store driven.TranscriptStore) error {
		if err := store.AppendTurn(ctx, s.id, turn); err != nil {
			return err
		}
		return store.SaveSummary(ctx, s.id, s.memory.Summary)
	})

	return result, nil
}

// End terminates the session and closes its index. Ending twice is a no-op.
func (s *ChatSession) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.SessionTerminated {
		return nil
	}
	s.state = domain.SessionTerminated

	s.persist(ctx, "end session", func(ctx context.Context, store driven.TranscriptStore) error {
		return store.SaveSession(ctx, s.record())
	})

	logger.Info("Session %s ended after %d turns", s.id, len(s.turns))
	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	return nil
}

func (s *ChatSession) record() domain.SessionRecord {
	rec := domain.SessionRecord{
		ID:              s.id,
		CorpusDirectory: s.directory,
		StartedAt:       s.startedAt,
		Summary:         s.memory.Summary,
	}
	if s.state == domain.SessionTerminated {
		rec.EndedAt = s.now()
	}
	return rec
}

// persist runs fn against the transcript store, if any. Failures are
// logged and never reach the caller.
func (s *ChatSession) persist(ctx context.Context, op string, fn func(context.Context, driven.TranscriptStore) error) {
	if s.transcripts == nil {
		return
	}
	if err := fn(ctx, s.transcripts); err != nil {
		logger.Warn("transcript %s: %v", op, err)
	}
}

// IsExit reports whether input is the command that ends a chat.
func IsExit(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "exit")
}
