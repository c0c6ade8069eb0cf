// Package service provides the chat turn pipeline: conversation resolution,
// turn orchestration, and history projection.
package service

import (
	"context"
	"fmt"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
	"github.com/aislecart-ai/shopping-assistant/internal/store"
	"github.com/aislecart-ai/shopping-assistant/pkg/logger"
	"github.com/aislecart-ai/shopping-assistant/pkg/metrics"
)

// ReusePolicy decides which existing conversation a user's next message
// joins. Swappable so per-topic or per-day policies can replace the default
// without touching the orchestrator.
type ReusePolicy interface {
	// Pick returns the conversation to reuse, or nil to create a new one.
	Pick(ctx context.Context, repo store.Repository, userID string) (*model.Conversation, error)
}

// ReuseLatest reuses the user's most recently created conversation
// unconditionally: all of a user's history accumulates in one growing
// conversation once it exists.
type ReuseLatest struct{}

// Pick returns the latest conversation, or nil when the user has none.
func (ReuseLatest) Pick(ctx context.Context, repo store.Repository, userID string) (*model.Conversation, error) {
	return repo.LatestConversation(ctx, userID)
}

// ConversationResolver maps an authenticated identity onto the conversation
// its next message belongs to, creating one if the policy finds nothing.
//
// There is no cross-request mutual exclusion here: two concurrent first
// turns from a brand-new user can each observe no conversation and each
// create one. That race is accepted; both conversations stay valid and
// internally ordered.
type ConversationResolver struct {
	repo   store.Repository
	policy ReusePolicy
	logger *logger.Logger
}

// NewConversationResolver creates a resolver with the given reuse policy.
// A nil policy defaults to ReuseLatest.
func NewConversationResolver(repo store.Repository, policy ReusePolicy, log *logger.Logger) *ConversationResolver {
	if policy == nil {
		policy = ReuseLatest{}
	}
	return &ConversationResolver{
		repo:   repo,
		policy: policy,
		logger: log,
	}
}

// Resolve returns the conversation userID's next message appends to,
// performing at most one insert.
func (r *ConversationResolver) Resolve(ctx context.Context, userID string) (*model.Conversation, error) {
	conv, err := r.policy.Pick(ctx, r.repo, userID)
	if err != nil {
		return nil, fmt.Errorf("pick conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv, err = r.repo.CreateConversation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	metrics.ConversationsTotal.Inc()
	r.logger.Info("conversation created", "conversation_id", conv.ID, "user_id", userID)

	return conv, nil
}
