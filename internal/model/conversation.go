// Package model defines data structures for the shopping assistant.
package model

import (
	"time"
)

// Conversation is a growing, ordered sequence of messages owned by one user.
// Conversations are never mutated after creation; messages are appended to
// them and removed only by cascade when the conversation itself is deleted.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`

	// Messages is populated by the history reader, ascending by creation time.
	Messages []Message `json:"messages"`
}
