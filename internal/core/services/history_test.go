package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
)

func TestHistoryService_Sessions(t *testing.T) {
	ctx := context.Background()
	store := newMockTranscriptStore()
	for i := 0; i < 25; i++ {
		require.NoError(t, store.SaveSession(ctx, domain.SessionRecord{ID: fmt.Sprintf("s%02d", i)}))
	}
	h := NewHistoryService(store)

	sessions, err := h.Sessions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, DefaultHistoryLimit)
	assert.Equal(t, "s24", sessions[0].ID)

	sessions, err = h.Sessions(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}

func TestHistoryService_SessionsError(t *testing.T) {
	store := newMockTranscriptStore()
	store.listErr = errors.New("database is locked")

	_, err := NewHistoryService(store).Sessions(context.Background(), 5)
	assert.ErrorContains(t, err, "database is locked")
}

func TestHistoryService_Turns(t *testing.T) {
	ctx := context.Background()
	store := newMockTranscriptStore()
	require.NoError(t, store.SaveSession(ctx, domain.SessionRecord{ID: "s1"}))
	require.NoError(t, store.AppendTurn(ctx, "s1", turn(1, "q", "a")))
	h := NewHistoryService(store)

	turns, err := h.Turns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "q", turns[0].Question)

	_, err = h.Turns(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.Turns(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
