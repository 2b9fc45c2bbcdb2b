package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"screenguard/internal/customwatchlist/models"
	screening "screenguard/internal/screening/models"
	dErrors "screenguard/pkg/errors"
	"screenguard/pkg/platform/httputil"
)

// Service defines the custom watchlist operations exposed over HTTP.
type Service interface {
	CreateWatchlist(ctx context.Context, name, description, listType string, createdBy uuid.UUID) (*models.Watchlist, error)
	UpdateWatchlist(ctx context.Context, id uuid.UUID, description, status string) (*models.Watchlist, error)
	GetWatchlist(ctx context.Context, id uuid.UUID) (*models.Watchlist, error)
	ListWatchlists(ctx context.Context) ([]*models.Watchlist, error)
	AddEntry(ctx context.Context, watchlistID uuid.UUID, entityName string, entityType screening.EntityType, matchReason, riskLevel string, addedBy uuid.UUID) (*models.Entry, error)
	RemoveEntry(ctx context.Context, entryID uuid.UUID) error
	ListEntries(ctx context.Context, watchlistID uuid.UUID) ([]*models.Entry, error)
	IsEntityOnCustomWatchlist(ctx context.Context, name string, entityType screening.EntityType) bool
}

// Handler wires custom watchlist endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts custom watchlist endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/watchlists", h.HandleCreate)
	r.Get("/watchlists", h.HandleList)
	r.Get("/watchlists/check", h.HandleCheck)
	r.Get("/watchlists/{watchlistID}", h.HandleGet)
	r.Patch("/watchlists/{watchlistID}", h.HandleUpdate)
	r.Post("/watchlists/{watchlistID}/entries", h.HandleAddEntry)
	r.Get("/watchlists/{watchlistID}/entries", h.HandleListEntries)
	r.Delete("/watchlists/entries/{entryID}", h.HandleRemoveEntry)
}

type createRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ListType    string `json:"listType"`
	CreatedBy   string `json:"createdBy"`
}

type updateRequest struct {
	Description string `json:"description"`
	Status      string `json:"status"`
}

type addEntryRequest struct {
	EntityName  string `json:"entityName"`
	EntityType  string `json:"entityType"`
	MatchReason string `json:"matchReason"`
	RiskLevel   string `json:"riskLevel"`
	AddedBy     string `json:"addedBy"`
}

type checkResponse struct {
	Name       string `json:"name"`
	EntityType string `json:"entityType"`
	Listed     bool   `json:"listed"`
}

// HandleCreate handles POST /watchlists requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[createRequest](w, r, h.logger)
	if !ok {
		return
	}
	createdBy, err := uuid.Parse(req.CreatedBy)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "createdBy must be a UUID"))
		return
	}

	watchlist, err := h.service.CreateWatchlist(ctx, req.Name, req.Description, req.ListType, createdBy)
	if err != nil {
		h.logger.ErrorContext(ctx, "watchlist creation failed", "name", req.Name, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "custom watchlist created",
		"watchlist_id", watchlist.ID, "name", watchlist.Name)
	httputil.WriteJSON(w, http.StatusCreated, watchlist)
}

// HandleList handles GET /watchlists requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	watchlists, err := h.service.ListWatchlists(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if watchlists == nil {
		watchlists = []*models.Watchlist{}
	}
	httputil.WriteJSON(w, http.StatusOK, watchlists)
}

// HandleGet handles GET /watchlists/{watchlistID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "watchlistID")
	if !ok {
		return
	}
	watchlist, err := h.service.GetWatchlist(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, watchlist)
}

// HandleUpdate handles PATCH /watchlists/{watchlistID} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(w, r, "watchlistID")
	if !ok {
		return
	}
	req, ok := httputil.Decode[updateRequest](w, r, h.logger)
	if !ok {
		return
	}

	watchlist, err := h.service.UpdateWatchlist(ctx, id, req.Description, req.Status)
	if err != nil {
		h.logger.ErrorContext(ctx, "watchlist update failed", "watchlist_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, watchlist)
}

// HandleAddEntry handles POST /watchlists/{watchlistID}/entries requests.
func (h *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(w, r, "watchlistID")
	if !ok {
		return
	}
	req, ok := httputil.Decode[addEntryRequest](w, r, h.logger)
	if !ok {
		return
	}
	addedBy, err := uuid.Parse(req.AddedBy)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "addedBy must be a UUID"))
		return
	}

	entry, err := h.service.AddEntry(ctx, id, req.EntityName, screening.EntityType(req.EntityType), req.MatchReason, req.RiskLevel, addedBy)
	if err != nil {
		h.logger.ErrorContext(ctx, "watchlist entry add failed",
			"watchlist_id", id, "entity_name", req.EntityName, "error", err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "custom watchlist entry added",
		"watchlist_id", id, "entry_id", entry.ID)
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

// HandleListEntries handles GET /watchlists/{watchlistID}/entries requests.
func (h *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "watchlistID")
	if !ok {
		return
	}
	entries, err := h.service.ListEntries(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// HandleRemoveEntry handles DELETE /watchlists/entries/{entryID} requests.
func (h *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := parseID(w, r, "entryID")
	if !ok {
		return
	}
	if err := h.service.RemoveEntry(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "watchlist entry removal failed", "entry_id", id, "error", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "custom watchlist entry removed", "entry_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleCheck handles GET /watchlists/check requests.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "name is required"))
		return
	}
	entityType := screening.EntityType(r.URL.Query().Get("entityType"))
	if !entityType.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "entityType must be PERSON or ORGANIZATION"))
		return
	}

	listed := h.service.IsEntityOnCustomWatchlist(r.Context(), name, entityType)
	httputil.WriteJSON(w, http.StatusOK, checkResponse{
		Name:       name,
		EntityType: string(entityType),
		Listed:     listed,
	})
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, param+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
