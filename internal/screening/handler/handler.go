package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"screenguard/internal/coverage"
	"screenguard/internal/screening/models"
	dErrors "screenguard/pkg/errors"
	"screenguard/pkg/platform/httputil"
)

// Engine defines the screening operations exposed over HTTP.
type Engine interface {
	ScreenName(ctx context.Context, name string, entityType models.EntityType) models.ScreeningResult
	ScreenMerchant(ctx context.Context, legalName, tradingName string) models.ScreeningResult
	ScreenBeneficialOwner(ctx context.Context, fullName string, dateOfBirth *time.Time) models.ScreeningResult
}

// CoverageReporter builds the coverage report endpoint payload.
type CoverageReporter interface {
	Report(ctx context.Context, window time.Duration) (*coverage.Report, error)
}

// Handler wires screening endpoints to the engine.
type Handler struct {
	engine   Engine
	coverage CoverageReporter
	logger   *slog.Logger
}

// New constructs a screening handler with its dependencies.
func New(engine Engine, coverage CoverageReporter, logger *slog.Logger) *Handler {
	return &Handler{
		engine:   engine,
		coverage: coverage,
		logger:   logger,
	}
}

// Register mounts screening endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/screening/name", h.HandleScreenName)
	r.Post("/screening/merchant", h.HandleScreenMerchant)
	r.Post("/screening/beneficial-owner", h.HandleScreenBeneficialOwner)
	r.Get("/screening/coverage", h.HandleCoverage)
}

type screenNameRequest struct {
	Name       string `json:"name"`
	EntityType string `json:"entityType"`
}

type screenMerchantRequest struct {
	LegalName   string `json:"legalName"`
	TradingName string `json:"tradingName"`
}

type screenOwnerRequest struct {
	FullName    string `json:"fullName"`
	DateOfBirth string `json:"dateOfBirth"`
}

// HandleScreenName handles POST /screening/name requests.
func (h *Handler) HandleScreenName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.Decode[screenNameRequest](w, r, h.logger)
	if !ok {
		return
	}

	entityType := models.EntityType(req.EntityType)
	if !entityType.IsValid() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "entityType must be PERSON or ORGANIZATION"))
		return
	}

	result := h.engine.ScreenName(ctx, req.Name, entityType)

	h.logger.InfoContext(ctx, "name screened",
		"entity_type", entityType,
		"status", result.Status,
		"match_count", result.MatchCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleScreenMerchant handles POST /screening/merchant requests.
func (h *Handler) HandleScreenMerchant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[screenMerchantRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.LegalName == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "legalName is required"))
		return
	}

	result := h.engine.ScreenMerchant(ctx, req.LegalName, req.TradingName)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleScreenBeneficialOwner handles POST /screening/beneficial-owner requests.
func (h *Handler) HandleScreenBeneficialOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.Decode[screenOwnerRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.FullName == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fullName is required"))
		return
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "dateOfBirth must be YYYY-MM-DD"))
			return
		}
		dob = &parsed
	}

	result := h.engine.ScreenBeneficialOwner(ctx, req.FullName, dob)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleCoverage handles GET /screening/coverage requests. The window query
// parameter defaults to 24h.
func (h *Handler) HandleCoverage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	window := 24 * time.Hour
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "window must be a positive duration"))
			return
		}
		window = parsed
	}

	report, err := h.coverage.Report(ctx, window)
	if err != nil {
		h.logger.ErrorContext(ctx, "coverage report failed", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
