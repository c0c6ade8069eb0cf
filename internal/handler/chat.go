package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aislecart-ai/shopping-assistant/internal/middleware"
	"github.com/aislecart-ai/shopping-assistant/internal/model"
	"github.com/aislecart-ai/shopping-assistant/internal/service"
	"github.com/aislecart-ai/shopping-assistant/internal/wire"
	"github.com/aislecart-ai/shopping-assistant/pkg/logger"
	"github.com/aislecart-ai/shopping-assistant/pkg/metrics"
)

// ChatHandler handles the streamed turn endpoint.
type ChatHandler struct {
	orchestrator *service.TurnOrchestrator
	logger       *logger.Logger
	turnTimeout  time.Duration
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(orch *service.TurnOrchestrator, log *logger.Logger, turnTimeout time.Duration) *ChatHandler {
	return &ChatHandler{
		orchestrator: orch,
		logger:       log,
		turnTimeout:  turnTimeout,
	}
}

// Chat handles POST /api/v1/chat.
//
// The response body is the wire-protocol stream. Once the first frame has
// been written the status can no longer change, so failures after that
// point surface only as early termination of the stream.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateChatRequest(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The encoder flushes per frame; it needs the writer to support it.
	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, h.turnTimeout)
	defer cancel()

	metrics.IncrementStreamConnections()
	defer metrics.DecrementStreamConnections()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	enc := wire.NewEncoder(w)
	framesSent := 0

	_, err := h.orchestrator.HandleTurn(ctx, userID, req.Messages, func(fragment string, index int) error {
		// Abandon promptly on client disconnect or timeout.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := enc.WriteText(fragment); err != nil {
			return err
		}
		framesSent++
		return nil
	})
	if err != nil {
		h.logger.Error("turn failed",
			"user_id", userID,
			"frames_sent", framesSent,
			"error", err,
		)
		if framesSent == 0 {
			writeError(w, http.StatusBadGateway, "generation failed")
		}
		// Otherwise the stream just ends early; the client treats the
		// severed stream as failure.
		return
	}
}
