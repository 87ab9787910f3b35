package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

func TestHistoryCmd_Disabled(t *testing.T) {
	_, err := execute(t, &App{}, "", "history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcript.enabled")
}

func TestHistoryCmd_ListsSessions(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	history := &MockHistoryService{Records: []domain.SessionRecord{
		{ID: "s2", StartedAt: started, CorpusDirectory: "/data"},
		{ID: "s1", StartedAt: started, EndedAt: started.Add(time.Hour), Summary: "Asked about EcoWipe."},
	}}

	out, err := execute(t, &App{History: history}, "", "history")

	require.NoError(t, err)
	assert.Contains(t, out, "s2")
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "    Asked about EcoWipe.")
}

func TestHistoryCmd_Limit(t *testing.T) {
	history := &MockHistoryService{Records: []domain.SessionRecord{{ID: "first"}, {ID: "second"}}}

	out, err := execute(t, &App{History: history}, "", "history", "-n", "1")

	require.NoError(t, err)
	assert.Contains(t, out, "first")
	assert.NotContains(t, out, "second")
}

func TestHistoryCmd_NoSessions(t *testing.T) {
	out, err := execute(t, &App{History: &MockHistoryService{}}, "", "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No sessions recorded.")
}

func TestHistoryCmd_ShowsTranscript(t *testing.T) {
	history := &MockHistoryService{TurnsByID: map[string][]domain.ConversationTurn{
		"s1": {
			{Seq: 1, Question: "What is EcoWipe?", Answer: "A paper towel."},
			{Seq: 2, Question: "Price?", Answer: "Four dollars."},
		},
	}}

	out, err := execute(t, &App{History: history}, "", "history", "s1")

	require.NoError(t, err)
	assert.Contains(t, out, "Q: What is EcoWipe?")
	assert.Contains(t, out, "A: Four dollars.")
	assert.Contains(t, out, "[2]")
}
