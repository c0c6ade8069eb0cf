package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aislecart-ai/shopping-assistant/internal/events"
	"github.com/aislecart-ai/shopping-assistant/internal/llm"
	"github.com/aislecart-ai/shopping-assistant/internal/model"
	"github.com/aislecart-ai/shopping-assistant/internal/store"
	"github.com/aislecart-ai/shopping-assistant/pkg/logger"
	"github.com/aislecart-ai/shopping-assistant/pkg/metrics"
)

// FragmentCallback is called for each reply fragment in generation order.
// Returning an error aborts the turn.
type FragmentCallback func(fragment string, index int) error

// TurnResult summarizes one completed turn.
type TurnResult struct {
	// ConversationID is zero for anonymous (unpersisted) turns.
	ConversationID int64
	// Reply is the concatenation of exactly the fragments relayed through
	// the callback, and exactly what was offered to the store.
	Reply     string
	Fragments int
}

// TurnOrchestrator runs one chat turn: resolve the conversation, persist the
// incoming user message, stream a catalog-grounded reply, and persist the
// assistant message once the stream completes.
//
// Persistence failures on this path are logged and swallowed: a durability
// loss must never block the user-visible reply. Generation failures abort
// the turn with nothing persisted on the assistant side.
type TurnOrchestrator struct {
	repo      store.Repository
	resolver  *ConversationResolver
	engine    llm.Client
	publisher *events.Publisher
	logger    *logger.Logger

	preamble string
	llmModel string
}

// NewTurnOrchestrator creates a turn orchestrator. The publisher may be nil.
func NewTurnOrchestrator(
	repo store.Repository,
	resolver *ConversationResolver,
	engine llm.Client,
	publisher *events.Publisher,
	log *logger.Logger,
	preamble string,
	llmModel string,
) *TurnOrchestrator {
	return &TurnOrchestrator{
		repo:      repo,
		resolver:  resolver,
		engine:    engine,
		publisher: publisher,
		logger:    log,
		preamble:  preamble,
		llmModel:  llmModel,
	}
}

// HandleTurn executes one turn for an optional identity over the
// client-visible history, relaying each generated fragment through
// onFragment as it arrives.
func (o *TurnOrchestrator) HandleTurn(ctx context.Context, userID string, history []model.ChatMessage, onFragment FragmentCallback) (*TurnResult, error) {
	log := o.logger.With("user_id", userID)

	req := model.ChatRequest{Messages: history}
	conv := o.persistUserMessage(ctx, userID, &req, log)

	system := o.buildContext(ctx, log)

	chatMessages := make([]llm.ChatMessage, len(history))
	for i, msg := range history {
		chatMessages[i] = llm.ChatMessage{Role: msg.Role, Content: msg.Content}
	}

	// Relay fragments as they arrive, accumulating our own copy so the
	// persisted text is byte-identical to what the client received,
	// independent of the engine's reassembly.
	var reply strings.Builder
	fragments := 0

	start := time.Now()
	_, err := o.engine.CompleteStream(ctx, &llm.CompletionRequest{
		Model:    o.llmModel,
		System:   system,
		Messages: chatMessages,
	}, func(fragment string, index int) error {
		if err := onFragment(fragment, index); err != nil {
			return err
		}
		reply.WriteString(fragment)
		fragments++
		return nil
	})
	if err != nil {
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		metrics.RecordLLMStream(o.engine.Name(), "error", time.Since(start).Seconds())
		o.publishEvent(ctx, &events.TurnEvent{
			Type:           events.TurnGenerationFailed,
			UserID:         userID,
			ConversationID: conversationID(conv),
			Fragments:      fragments,
			Reason:         err.Error(),
			CreatedAt:      time.Now(),
		}, log)
		return nil, fmt.Errorf("%w: %v", model.ErrGeneration, err)
	}

	metrics.RecordLLMStream(o.engine.Name(), "success", time.Since(start).Seconds())

	result := &TurnResult{
		ConversationID: conversationID(conv),
		Reply:          reply.String(),
		Fragments:      fragments,
	}

	// Terminal hook: runs exactly once, only on the success path, after
	// the last fragment.
	if conv != nil && result.Reply != "" {
		if _, err := o.repo.AppendMessage(ctx, conv.ID, model.RoleAssistant, result.Reply); err != nil {
			metrics.PersistenceFailures.WithLabelValues(string(model.RoleAssistant)).Inc()
			log.Warn("failed to persist assistant message, reply already delivered",
				"conversation_id", conv.ID, "error", err)
		} else {
			metrics.MessagesPersisted.WithLabelValues(string(model.RoleAssistant)).Inc()
		}
	}

	metrics.TurnsTotal.WithLabelValues("success").Inc()
	o.publishEvent(ctx, &events.TurnEvent{
		Type:           events.TurnCompleted,
		UserID:         userID,
		ConversationID: result.ConversationID,
		Fragments:      result.Fragments,
		ReplyBytes:     len(result.Reply),
		CreatedAt:      time.Now(),
	}, log)

	return result, nil
}

// persistUserMessage resolves the conversation and writes the trailing user
// message. All failures here are swallowed after logging: generation
// proceeds regardless. Returns nil for anonymous callers, for histories
// without a trailing user message, and on resolver failure.
func (o *TurnOrchestrator) persistUserMessage(ctx context.Context, userID string, req *model.ChatRequest, log *logger.Logger) *model.Conversation {
	if userID == "" {
		return nil
	}

	conv, err := o.resolver.Resolve(ctx, userID)
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(string(model.RoleUser)).Inc()
		log.Warn("failed to resolve conversation, turn proceeds unpersisted", "error", err)
		return nil
	}

	last, ok := req.LastUserMessage()
	if !ok {
		return conv
	}

	if _, err := o.repo.AppendMessage(ctx, conv.ID, model.RoleUser, last.Content); err != nil {
		metrics.PersistenceFailures.WithLabelValues(string(model.RoleUser)).Inc()
		log.Warn("failed to persist user message, turn proceeds", "conversation_id", conv.ID, "error", err)
		return conv
	}
	metrics.MessagesPersisted.WithLabelValues(string(model.RoleUser)).Inc()

	return conv
}

// buildContext reads the catalog snapshot and assembles the system prompt.
// A catalog read failure degrades to an uncontextualized reply rather than
// failing the turn.
func (o *TurnOrchestrator) buildContext(ctx context.Context, log *logger.Logger) string {
	products, err := o.repo.ListProducts(ctx)
	if err != nil {
		log.Warn("failed to load catalog for generation context", "error", err)
		products = nil
	}
	return BuildSystemPrompt(o.preamble, products)
}

func (o *TurnOrchestrator) publishEvent(ctx context.Context, event *events.TurnEvent, log *logger.Logger) {
	if err := o.publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish turn event", "type", event.Type, "error", err)
	}
}

func conversationID(conv *model.Conversation) int64 {
	if conv == nil {
		return 0
	}
	return conv.ID
}
