package model

import (
	"time"
)

// Role identifies the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one the store accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one persisted entry in a conversation. The id and timestamp are
// server-assigned on append; content is immutable afterwards.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"-"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ChatMessage is one entry of the client-visible history submitted with a
// turn request. Unlike Message it carries no identity: the client's view is
// trusted only as generation context, never written back verbatim.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a turn request.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// LastUserMessage returns the trailing message of the history if and only if
// it has role user; persistence is derived from it, never from the rest of
// the client history.
func (r *ChatRequest) LastUserMessage() (ChatMessage, bool) {
	if len(r.Messages) == 0 {
		return ChatMessage{}, false
	}
	last := r.Messages[len(r.Messages)-1]
	if last.Role != string(RoleUser) {
		return ChatMessage{}, false
	}
	return last, true
}
