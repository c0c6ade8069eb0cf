package service

import (
	"context"
	"fmt"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
	"github.com/aislecart-ai/shopping-assistant/internal/store"
)

// HistoryReader is the read-only projection of a user's conversations with
// their ordered messages. Safe for concurrent use; it holds no state beyond
// the repository handle.
type HistoryReader struct {
	repo store.Repository
}

// NewHistoryReader creates a history reader.
func NewHistoryReader(repo store.Repository) *HistoryReader {
	return &HistoryReader{repo: repo}
}

// GetHistory returns the user's conversations, most recent first, each with
// its messages in creation order. A user with no conversations gets an empty
// slice, not an error.
func (h *HistoryReader) GetHistory(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, model.ErrUnauthorized
	}

	conversations, err := h.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	for i := range conversations {
		messages, err := h.repo.ListMessages(ctx, conversations[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list messages for conversation %d: %w", conversations[i].ID, err)
		}
		conversations[i].Messages = messages
	}

	return conversations, nil
}
