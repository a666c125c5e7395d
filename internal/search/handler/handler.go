package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"titlesearch/internal/registry"
	"titlesearch/internal/search"
	dErrors "titlesearch/pkg/domain-errors"
	"titlesearch/pkg/platform/httputil"
	"titlesearch/pkg/requestcontext"
)

// Service defines the interface for search operations.
type Service interface {
	Search(ctx context.Context, req search.Request) *search.AggregateResult
	ListSources(f registry.ListFilter) []*registry.SourceDescriptor
	Coverage() registry.CoverageStats
}

// Handler wires search endpoints to the orchestrator service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a search handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts search endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/search", h.HandleSearch)
	r.Get("/sources", h.HandleListSources)
	r.Get("/sources/coverage", h.HandleCoverage)
}

// HandleSearch handles POST /api/search requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.Decode[search.Request](w, r, h.logger)
	if !ok {
		return
	}

	result := h.service.Search(ctx, req)

	h.logger.InfoContext(ctx, "search request served",
		"request_id", requestID,
		"search_id", result.RequestID,
		"status", string(result.Status),
		"documents", result.TotalDocuments,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	status := http.StatusOK
	if result.Status == search.StatusFailed && result.Searched == 0 {
		// Rejected before any jurisdiction ran.
		status = dErrors.HTTPStatus(dErrors.CodeValidation)
	}
	httputil.WriteJSON(w, status, result)
}

// HandleListSources handles GET /api/sources requests. Supports ?state= and
// ?online_access=true|false filters.
func (h *Handler) HandleListSources(w http.ResponseWriter, r *http.Request) {
	filter := registry.ListFilter{State: r.URL.Query().Get("state")}
	switch r.URL.Query().Get("online_access") {
	case "true":
		t := true
		filter.OnlineAccess = &t
	case "false":
		f := false
		filter.OnlineAccess = &f
	case "":
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "online_access must be true or false"))
		return
	}

	sources := h.service.ListSources(filter)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"sources": sources,
		"count":   len(sources),
	})
}

// HandleCoverage handles GET /api/sources/coverage requests.
func (h *Handler) HandleCoverage(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Coverage())
}
