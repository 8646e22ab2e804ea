package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storelift/smartstore-lister/internal/pipeline"
	"github.com/storelift/smartstore-lister/internal/runs"
	"github.com/storelift/smartstore-lister/internal/selectors"
)

type Handlers struct {
	runs     *runs.Manager
	registry *selectors.Registry
	logger   *slog.Logger
	// baseCtx parents every run; runs outlive the request that started them.
	baseCtx context.Context
}

func NewHandlers(baseCtx context.Context, manager *runs.Manager, registry *selectors.Registry, logger *slog.Logger) *Handlers {
	return &Handlers{
		runs:     manager,
		registry: registry,
		logger:   logger,
		baseCtx:  baseCtx,
	}
}

// CreateRunRequest starts a submission run for one product URL.
type CreateRunRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Site         string `json:"site"`
	ProductURL   string `json:"product_url"`
}

// CreateRun handles new submission run creation.
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ClientID == "" || req.ClientSecret == "" {
		h.respondError(w, http.StatusBadRequest, "client_id and client_secret are required")
		return
	}
	if req.Site == "" || req.ProductURL == "" {
		h.respondError(w, http.StatusBadRequest, "site and product_url are required")
		return
	}
	if profile, ok := h.registry.Lookup(req.Site); !ok || profile.Empty() {
		h.respondError(w, http.StatusBadRequest, "unknown site identifier")
		return
	}

	run := h.runs.Create(h.baseCtx, pipeline.Request{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		Site:         req.Site,
		ProductURL:   req.ProductURL,
	})

	h.respondJSON(w, http.StatusCreated, run)
}

// GetRun handles run status retrieval.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := h.runs.Get(runID)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "run not found")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

// ListRuns handles listing all runs.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.runs.List())
}

// ListSites reports the site identifiers the registry knows.
func (h *Handlers) ListSites(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string][]string{"sites": h.registry.Sites()})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
