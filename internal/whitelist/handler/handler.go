package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"screenguard/internal/whitelist/models"
	dErrors "screenguard/pkg/errors"
	"screenguard/pkg/platform/httputil"
)

// Service defines the whitelist operations exposed over HTTP.
type Service interface {
	Add(ctx context.Context, entityID, entityType, reason string, createdBy uuid.UUID, expiresAt *time.Time) (*models.Entry, error)
	Remove(ctx context.Context, entityID, entityType string) error
	ListActive(ctx context.Context, entityType string) ([]*models.Entry, error)
}

// Handler wires whitelist endpoints to the whitelist service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts whitelist endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/whitelist", h.HandleAdd)
	r.Delete("/whitelist/{entityType}/{entityID}", h.HandleRemove)
	r.Get("/whitelist", h.HandleList)
}

type addRequest struct {
	EntityID   string `json:"entityId"`
	EntityType string `json:"entityType"`
	Reason     string `json:"reason"`
	CreatedBy  string `json:"createdBy"`
	ExpiresAt  string `json:"expiresAt"`
}

// HandleAdd handles POST /whitelist requests.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[addRequest](w, r, h.logger)
	if !ok {
		return
	}

	createdBy, err := uuid.Parse(req.CreatedBy)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "createdBy must be a UUID"))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expiresAt must be RFC 3339"))
			return
		}
		expiresAt = &parsed
	}

	entry, err := h.service.Add(ctx, req.EntityID, req.EntityType, req.Reason, createdBy, expiresAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "whitelist add failed",
			"entity_id", req.EntityID, "entity_type", req.EntityType, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "entity whitelisted",
		"entity_id", entry.EntityID, "entity_type", entry.EntityType)
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

// HandleRemove handles DELETE /whitelist/{entityType}/{entityID} requests.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityID")

	if err := h.service.Remove(ctx, entityID, entityType); err != nil {
		h.logger.ErrorContext(ctx, "whitelist remove failed",
			"entity_id", entityID, "entity_type", entityType, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "entity removed from whitelist",
		"entity_id", entityID, "entity_type", entityType)
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /whitelist requests. An optional entityType query
// parameter filters the listing.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entries, err := h.service.ListActive(ctx, r.URL.Query().Get("entityType"))
	if err != nil {
		h.logger.ErrorContext(ctx, "whitelist listing failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
