package handler

import (
	"net/http"

	"github.com/aislecart-ai/shopping-assistant/internal/middleware"
	"github.com/aislecart-ai/shopping-assistant/internal/service"
	"github.com/aislecart-ai/shopping-assistant/pkg/logger"
)

// HistoryHandler handles the chat history endpoint.
type HistoryHandler struct {
	reader *service.HistoryReader
	logger *logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(reader *service.HistoryReader, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		reader: reader,
		logger: log,
	}
}

// GetHistory handles GET /api/v1/chat/history.
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	history, err := h.reader.GetHistory(ctx, userID)
	if err != nil {
		h.logger.Error("failed to fetch chat history", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch chat history")
		return
	}

	writeJSON(w, http.StatusOK, history)
}
