// Package store provides durable persistence for conversations, messages,
// and the product catalog.
package store

import (
	"context"

	"github.com/aislecart-ai/shopping-assistant/internal/model"
)

// Repository is the append-only conversation log plus the read-only catalog.
// Messages and conversations are never updated in place; deletion happens
// only through FK cascade.
type Repository interface {
	// CreateConversation inserts a conversation owned by userID and returns
	// it with its server-assigned id and timestamp.
	CreateConversation(ctx context.Context, userID string) (*model.Conversation, error)

	// LatestConversation returns the most recently created conversation
	// owned by userID, or nil if the user has none.
	LatestConversation(ctx context.Context, userID string) (*model.Conversation, error)

	// ListConversations returns the user's conversations, most recent first.
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)

	// AppendMessage inserts one message with a server-assigned id and
	// timestamp. Fails if the conversation does not exist or content is
	// empty; never rejects on content shape beyond that.
	AppendMessage(ctx context.Context, conversationID int64, role model.Role, content string) (*model.Message, error)

	// ListMessages returns a conversation's messages in creation order.
	ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error)

	// DeleteConversation removes a conversation; its messages go with it.
	DeleteConversation(ctx context.Context, id int64) error

	// ListProducts returns the full catalog.
	ListProducts(ctx context.Context) ([]model.Product, error)

	// CreateProduct inserts a catalog item (seeding only; the chat path
	// never mutates the catalog).
	CreateProduct(ctx context.Context, p *model.Product) error

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
