package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
	"github.com/aislecart-ai/shopping-assistant/internal/store"
	"github.com/aislecart-ai/shopping-assistant/pkg/logger"
)

func TestResolverCreatesThenReuses(t *testing.T) {
	repo := newMockRepo()
	resolver := NewConversationResolver(repo, nil, logger.NewNop())
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, first)

	// Every subsequent resolve reuses the same conversation.
	for i := 0; i < 3; i++ {
		again, err := resolver.Resolve(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, first.ID, again.ID)
	}
	require.Len(t, repo.conversations, 1)

	// A different identity gets its own conversation.
	other, err := resolver.Resolve(ctx, "user-2")
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)
}

func TestResolverPropagatesStoreErrors(t *testing.T) {
	repo := newMockRepo()
	repo.latestErr = model.ErrPersistence
	resolver := NewConversationResolver(repo, nil, logger.NewNop())

	_, err := resolver.Resolve(context.Background(), "user-1")
	require.ErrorIs(t, err, model.ErrPersistence)
}

// newestOf is a trivial alternate policy proving the strategy seam works
// without orchestrator changes.
type alwaysCreate struct{}

func (alwaysCreate) Pick(_ context.Context, _ store.Repository, _ string) (*model.Conversation, error) {
	return nil, nil
}

func TestResolverSwappablePolicy(t *testing.T) {
	repo := newMockRepo()
	resolver := NewConversationResolver(repo, alwaysCreate{}, logger.NewNop())
	ctx := context.Background()

	a, err := resolver.Resolve(ctx, "user-1")
	require.NoError(t, err)
	b, err := resolver.Resolve(ctx, "user-1")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID, "per-turn policy creates every time")
	require.Len(t, repo.conversations, 2)
}
