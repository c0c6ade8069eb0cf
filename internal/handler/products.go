package handler

import (
	"net/http"

	"github.com/aislecart-ai/shopping-assistant/internal/store"
	"github.com/aislecart-ai/shopping-assistant/pkg/logger"
)

// ProductHandler serves the read-only catalog.
type ProductHandler struct {
	repo   store.Repository
	logger *logger.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(repo store.Repository, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		repo:   repo,
		logger: log,
	}
}

// List handles GET /api/v1/products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch products", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}
