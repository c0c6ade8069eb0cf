package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConversationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	latest, err := s.LatestConversation(ctx, "user-1")
	require.NoError(t, err)
	require.Nil(t, latest, "no conversation before first create")

	first, err := s.CreateConversation(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", first.UserID)
	require.NotZero(t, first.ID)

	second, err := s.CreateConversation(ctx, "user-1")
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	latest, err = s.LatestConversation(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)

	// Descending order, and only the owner's conversations.
	_, err = s.CreateConversation(ctx, "user-2")
	require.NoError(t, err)

	convs, err := s.ListConversations(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, convs, 2)
	require.Equal(t, second.ID, convs[0].ID)
	require.Equal(t, first.ID, convs[1].ID)
}

func TestCreateConversationRequiresOwner(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateConversation(context.Background(), "")
	require.ErrorIs(t, err, model.ErrValidation)
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "user-1")
	require.NoError(t, err)

	contents := []struct {
		role    model.Role
		content string
	}{
		{model.RoleUser, "Find running shoes"},
		{model.RoleAssistant, "Here are some running shoes..."},
		{model.RoleUser, "Anything under $50?"},
		{model.RoleAssistant, "Yes, two options."},
	}
	for _, m := range contents {
		msg, err := s.AppendMessage(ctx, conv.ID, m.role, m.content)
		require.NoError(t, err)
		require.NotZero(t, msg.ID)
	}

	msgs, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, len(contents))
	for i, m := range contents {
		require.Equal(t, m.role, msgs[i].Role)
		require.Equal(t, m.content, msgs[i].Content)
		if i > 0 {
			require.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
			require.Greater(t, msgs[i].ID, msgs[i-1].ID)
		}
	}
}

func TestAppendMessageValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "user-1")
	require.NoError(t, err)

	_, err = s.AppendMessage(ctx, conv.ID, model.RoleUser, "")
	require.ErrorIs(t, err, model.ErrValidation)

	_, err = s.AppendMessage(ctx, conv.ID, model.Role("system"), "nope")
	require.ErrorIs(t, err, model.ErrValidation)

	// Unknown conversation violates the FK and surfaces as a persistence
	// error, not a silent insert.
	_, err = s.AppendMessage(ctx, 9999, model.RoleUser, "orphan")
	require.ErrorIs(t, err, model.ErrPersistence)
}

func TestListMessagesEmptyConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "user-1")
	require.NoError(t, err)

	msgs, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Empty(t, msgs)
	require.NotNil(t, msgs)
}

func TestDeleteConversationCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "user-1")
	require.NoError(t, err)
	_, err = s.AppendMessage(ctx, conv.ID, model.RoleUser, "hello")
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(ctx, conv.ID))

	msgs, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Empty(t, msgs)

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count))
	require.Zero(t, count, "cascade must remove orphaned messages")
}

func TestProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Empty(t, products)

	p := &model.Product{Name: "Trail Runner X", Description: "Lightweight trail shoe", Price: "89.99", Stock: 12}
	require.NoError(t, s.CreateProduct(ctx, p))
	require.NotZero(t, p.ID)

	products, err = s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "Trail Runner X", products[0].Name)
	require.Equal(t, 12, products[0].Stock)
}

func TestClosedStoreSurfacesPersistenceError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.ListConversations(context.Background(), "user-1")
	require.Error(t, err)
	require.True(t, errors.Is(err, model.ErrPersistence))
}
