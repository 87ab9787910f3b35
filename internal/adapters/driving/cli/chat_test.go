package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
)

func TestChatCmd_Conversation(t *testing.T) {
	sess := &MockSession{}
	a := &App{Sessions: &MockSessionService{Session: sess}}

	out, err := execute(t, a, "What is EcoWipe?\nAnd the price?\nEXIT\n", "chat", "--data", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, greeting)
	assert.Contains(t, out, exitHint)
	assert.Contains(t, out, "Marketing Guru: answer to What is EcoWipe?")
	assert.Contains(t, out, "Marketing Guru: answer to And the price?")
	assert.Contains(t, out, farewell)
	assert.Equal(t, []string{"What is EcoWipe?", "And the price?"}, sess.Asked)
	assert.Equal(t, 1, sess.Ended)
}

func TestChatCmd_ExitIsCaseInsensitive(t *testing.T) {
	sess := &MockSession{}
	a := &App{Sessions: &MockSessionService{Session: sess}}

	out, err := execute(t, a, "  exit  \nnever asked\n", "chat")

	require.NoError(t, err)
	assert.Empty(t, sess.Asked)
	assert.Contains(t, out, farewell)
}

func TestChatCmd_EOFEndsChat(t *testing.T) {
	sess := &MockSession{}
	a := &App{Sessions: &MockSessionService{Session: sess}}

	out, err := execute(t, a, "last question without newline", "chat")

	require.NoError(t, err)
	assert.Equal(t, []string{"last question without newline"}, sess.Asked)
	assert.Contains(t, out, farewell)
	assert.Equal(t, 1, sess.Ended)
}

func TestChatCmd_BlankLinesAreSkipped(t *testing.T) {
	sess := &MockSession{}
	a := &App{Sessions: &MockSessionService{Session: sess}}

	_, err := execute(t, a, "\n\n   \nEXIT\n", "chat")

	require.NoError(t, err)
	assert.Empty(t, sess.Asked)
}

func TestChatCmd_EmptyCorpusWarning(t *testing.T) {
	sess := &MockSession{WarnWith: &domain.CorpusEmptyWarning{Directory: "/data"}}
	a := &App{Sessions: &MockSessionService{Session: sess}}

	out, err := execute(t, a, "EXIT\n", "chat")

	require.NoError(t, err)
	assert.Contains(t, out, domain.CorpusEmptyWarningMessage)
}

func TestChatCmd_TurnWarningAndSources(t *testing.T) {
	dir := t.TempDir()
	sess := &MockSession{AskFunc: func(q string) domain.AskResult {
		return domain.AskResult{
			Turn: domain.ConversationTurn{Seq: 1, Question: q},
			Answer: domain.Answer{
				Text: "EcoWipe is a paper towel.",
				Sources: domain.RetrievalResult{
					{Chunk: domain.Chunk{ID: "c1", DocumentID: "d", SourcePath: dir + "/products.txt"}, Score: 0.9},
					{Chunk: domain.Chunk{ID: "c2", DocumentID: "d", SourcePath: dir + "/products.txt"}, Score: 0.8},
				},
			},
			Warning: domain.ErrMemoryUpdate,
		}
	}}
	a := &App{Sessions: &MockSessionService{Session: sess}}

	out, err := execute(t, a, "q\nEXIT\n", "chat", "--show-sources", "--data", dir)

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: "+domain.ErrMemoryUpdate.Error())
	assert.Contains(t, out, "  source: products.txt")
	assert.Equal(t, 1, strings.Count(out, "source: products.txt"))
}

func TestChatCmd_UsesDataFlag(t *testing.T) {
	dir := t.TempDir()
	svc := &MockSessionService{}
	a := &App{Sessions: svc}

	_, err := execute(t, a, "EXIT\n", "chat", "--data", dir)

	require.NoError(t, err)
	assert.Equal(t, []string{dir}, svc.Dirs)
}

func TestChatCmd_StartFailure(t *testing.T) {
	a := &App{Sessions: &MockSessionService{StartErr: domain.ErrEmbeddingService}}

	_, err := execute(t, a, "", "chat")

	require.ErrorIs(t, err, domain.ErrEmbeddingService)
}

type stubWatcher struct {
	changes []domain.CorpusChange
}

func (w *stubWatcher) Watch(context.Context) (<-chan domain.CorpusChange, error) {
	ch := make(chan domain.CorpusChange, len(w.changes))
	for _, c := range w.changes {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func TestChatCmd_WatchStartsWatcher(t *testing.T) {
	dir := t.TempDir()
	var watched string
	a := &App{
		Sessions: &MockSessionService{},
		Watch: func(d string) driven.CorpusWatcher {
			watched = d
			return &stubWatcher{}
		},
	}

	_, err := execute(t, a, "EXIT\n", "chat", "--watch", "--data", dir)

	require.NoError(t, err)
	assert.Equal(t, dir, watched)
}

func TestChatCmd_NoWatchByDefault(t *testing.T) {
	called := false
	a := &App{
		Sessions: &MockSessionService{},
		Watch: func(string) driven.CorpusWatcher {
			called = true
			return &stubWatcher{}
		},
	}

	_, err := execute(t, a, "EXIT\n", "chat")

	require.NoError(t, err)
	assert.False(t, called)
}
