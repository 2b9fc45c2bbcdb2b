package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"screenguard/internal/realtime/models"
	dErrors "screenguard/pkg/errors"
	"screenguard/pkg/platform/httputil"
)

// Service defines the transaction screening operation exposed over HTTP.
type Service interface {
	ScreenTransaction(ctx context.Context, tx models.Transaction) models.TransactionScreeningResult
}

// Handler wires transaction screening to the realtime service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the transaction screening endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transactions/screen", h.HandleScreenTransaction)
}

// HandleScreenTransaction handles POST /transactions/screen requests.
func (h *Handler) HandleScreenTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	tx, ok := httputil.Decode[models.Transaction](w, r, h.logger)
	if !ok {
		return
	}
	if tx.ID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "transaction id is required"))
		return
	}

	result := h.service.ScreenTransaction(ctx, tx)

	h.logger.InfoContext(ctx, "transaction screened",
		"transaction_id", tx.ID,
		"match_count", len(result.Matches),
		"should_block", result.ShouldBlock,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
