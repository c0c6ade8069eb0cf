package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the name of the turn events stream.
	StreamName = "CHAT_TURNS"

	// SubjectPrefix is the prefix for all turn event subjects.
	SubjectPrefix = "turns"
)

// TurnEventType classifies a turn lifecycle event.
type TurnEventType string

const (
	TurnCompleted        TurnEventType = "completed"
	TurnGenerationFailed TurnEventType = "generation_failed"
)

// TurnEvent is published once per finished turn.
type TurnEvent struct {
	Type           TurnEventType `json:"type"`
	UserID         string        `json:"user_id,omitempty"`
	ConversationID int64         `json:"conversation_id,omitempty"`
	Fragments      int           `json:"fragments"`
	ReplyBytes     int           `json:"reply_bytes"`
	Reason         string        `json:"reason,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Publisher publishes turn events. A nil Publisher is valid and drops
// everything, so the serving path never depends on a broker being
// configured.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher over an established client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// EnsureStream ensures the turn events stream exists.
func (p *Publisher) EnsureStream(ctx context.Context) error {
	if p == nil {
		return nil
	}
	js := p.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Chat turn lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// Publish emits one turn event. Errors are returned for the caller to log;
// they never abort a turn.
func (p *Publisher) Publish(ctx context.Context, event *TurnEvent) error {
	if p == nil {
		return nil
	}

	subject := fmt.Sprintf("%s.%s", SubjectPrefix, event.Type)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
