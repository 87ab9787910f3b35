package services

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

const mockDims = 256

// mockEmbeddingService embeds text as a hashed bag of lowercase words, so
// texts sharing words score higher than texts that don't.
type mockEmbeddingService struct {
	mu sync.Mutex

	model string

	// failEmbeds makes the next N Embed calls fail.
	failEmbeds int
	// failOn fails any call whose text contains the string.
	failOn   string
	batchErr error
	// wrongDims returns vectors of this size instead of mockDims when set.
	wrongDims int
	// unknownDims makes Dimensions report 0, like a deployment of an
	// unlisted model.
	unknownDims bool

	embedCalls int
	batchCalls int
	batchSizes []int
}

func newMockEmbedder() *mockEmbeddingService {
	return &mockEmbeddingService{model: "bag-of-words"}
}

func (m *mockEmbeddingService) vector(text string) []float32 {
	dims := mockDims
	if m.wrongDims > 0 {
		dims = m.wrongDims
	}
	vec := make([]float32, dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,?!:;\"'")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%uint32(dims)]++
	}
	return vec
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedCalls++
	if m.failEmbeds > 0 {
		m.failEmbeds--
		return nil, errors.New("embedding endpoint unavailable")
	}
	if m.failOn != "" && strings.Contains(text, m.failOn) {
		return nil, errors.New("embedding rejected")
	}
	return m.vector(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	m.batchSizes = append(m.batchSizes, len(texts))
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.vector(text)
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.unknownDims {
		return 0
	}
	return mockDims
}

func (m *mockEmbeddingService) ModelName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

func (m *mockEmbeddingService) setModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

func (m *mockEmbeddingService) setFailEmbeds(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failEmbeds = n
}

func (m *mockEmbeddingService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedCalls
}

func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// mockLLM answers with reply, or fails with err. Each call is recorded.
type mockLLM struct {
	mu sync.Mutex

	reply func(messages []driven.ChatMessage) (string, error)
	calls [][]driven.ChatMessage
}

// newEchoLLM returns a model whose answers quote the request, and whose
// summaries restate the new conversation lines.
func newEchoLLM() *mockLLM {
	return &mockLLM{reply: func(messages []driven.ChatMessage) (string, error) {
		last := messages[len(messages)-1].Content
		if strings.HasPrefix(last, "SUMMARISE") {
			_, lines, _ := strings.Cut(last, "NEW:")
			return "Summary of: " + strings.TrimSpace(lines), nil
		}
		return "Answer to: " + last, nil
	}}
}

func newFailingLLM(err error) *mockLLM {
	return &mockLLM{reply: func([]driven.ChatMessage) (string, error) { return "", err }}
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]driven.ChatMessage(nil), messages...))
	reply := m.reply
	m.mu.Unlock()
	return reply(messages)
}

func (m *mockLLM) setReply(fn func([]driven.ChatMessage) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = fn
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) lastCall() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mockPromptStore serves fixed templates with the real placeholders.
type mockPromptStore struct {
	prompts map[string]string
}

func newMockPromptStore() *mockPromptStore {
	return &mockPromptStore{prompts: map[string]string{
		driven.PromptPersona:        "You are a marketing guru.",
		driven.PromptQuestion:       "Question: %s",
		driven.PromptSummarise:      "SUMMARISE in %d words.\nCURRENT: %s\nNEW: %s",
		driven.PromptSummaryContext: "Conversation so far: %s",
	}}
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// wordTokenizer treats every whitespace-separated word as one token.
type wordTokenizer struct {
	mu    sync.Mutex
	vocab map[string]int
	words []string
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: make(map[string]int)}
}

func (w *wordTokenizer) Encode(text string) []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	fields := strings.Fields(text)
	tokens := make([]int, 0, len(fields))
	for _, f := range fields {
		id, ok := w.vocab[f]
		if !ok {
			id = len(w.words)
			w.vocab[f] = id
			w.words = append(w.words, f)
		}
		tokens = append(tokens, id)
	}
	return tokens
}

func (w *wordTokenizer) Decode(tokens []int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = w.words[t]
	}
	return strings.Join(parts, " ")
}

func (w *wordTokenizer) Name() string { return "words" }

// mockSource is an in-memory corpus keyed by URI.
type mockSource struct {
	files   map[string]string
	mime    map[string]string
	listErr error
	readErr map[string]error
}

func newMockSource(files map[string]string) *mockSource {
	return &mockSource{files: files, mime: map[string]string{}, readErr: map[string]error{}}
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) List(_ context.Context) ([]domain.SourceRef, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	refs := make([]domain.SourceRef, 0, len(m.files))
	for uri, content := range m.files {
		mime := m.mime[uri]
		if mime == "" {
			mime = "text/plain"
		}
		refs = append(refs, domain.SourceRef{URI: uri, MIMEType: mime, Size: int64(len(content))})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].URI < refs[j].URI })
	return refs, nil
}

func (m *mockSource) Read(_ context.Context, ref domain.SourceRef) (*domain.RawDocument, error) {
	if err := m.readErr[ref.URI]; err != nil {
		return nil, err
	}
	return &domain.RawDocument{URI: ref.URI, MIMEType: ref.MIMEType, Content: []byte(m.files[ref.URI])}, nil
}

// mockTranscriptStore records transcript writes in memory.
type mockTranscriptStore struct {
	mu        sync.Mutex
	sessions  map[string]domain.SessionRecord
	order     []string
	turns     map[string][]domain.ConversationTurn
	summaries map[string]domain.MemorySummary

	saveErr   error
	appendErr error
	listErr   error
}

func newMockTranscriptStore() *mockTranscriptStore {
	return &mockTranscriptStore{
		sessions:  map[string]domain.SessionRecord{},
		turns:     map[string][]domain.ConversationTurn{},
		summaries: map[string]domain.MemorySummary{},
	}
}

func (m *mockTranscriptStore) SaveSession(_ context.Context, rec domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if _, ok := m.sessions[rec.ID]; !ok {
		m.order = append(m.order, rec.ID)
	}
	m.sessions[rec.ID] = rec
	return nil
}

func (m *mockTranscriptStore) AppendTurn(_ context.Context, id string, turn domain.ConversationTurn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.turns[id] = append(m.turns[id], turn)
	return nil
}

func (m *mockTranscriptStore) SaveSummary(_ context.Context, id string, summary domain.MemorySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries[id] = summary
	return nil
}

func (m *mockTranscriptStore) ListSessions(_ context.Context, limit int) ([]domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.SessionRecord
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.sessions[m.order[i]])
	}
	return out, nil
}

func (m *mockTranscriptStore) Turns(_ context.Context, id string) ([]domain.ConversationTurn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return nil, domain.ErrNotFound
	}
	return m.turns[id], nil
}

func (m *mockTranscriptStore) Close() error { return nil }

// fastRetry retries without waiting.
func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialBackoff: time.Microsecond, MaxBackoff: time.Microsecond}
}
