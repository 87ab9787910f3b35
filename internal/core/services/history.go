package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/guru-cli/internal/core/domain"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driven"
	"github.com/custodia-labs/guru-cli/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// DefaultHistoryLimit is used when no positive limit is given.
const DefaultHistoryLimit = 20

// HistoryService reads stored transcripts.
type HistoryService struct {
	store driven.TranscriptStore
}

// NewHistoryService creates a history service.
func NewHistoryService(store driven.TranscriptStore) *HistoryService {
	return &HistoryService{store: store}
}

// Sessions lists recent sessions, most recent first.
func (h *HistoryService) Sessions(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	sessions, err := h.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Turns returns the turns of one session.
func (h *HistoryService) Turns(ctx context.Context, sessionID string) ([]domain.ConversationTurn, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", domain.ErrInvalidInput)
	}
	turns, err := h.store.Turns(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read turns: %w", err)
	}
	return turns, nil
}
