package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/imi/internal/imi"
	"github.com/wonny/imi/pkg/logger"
)

// CatalogHandler serves clusters and themes
type CatalogHandler struct {
	svc    *imi.Service
	logger *logger.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc *imi.Service, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: log}
}

// ListClusters GET /api/imi/clusters
func (h *CatalogHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListClusters(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// CreateCluster POST /api/imi/clusters
func (h *CatalogHandler) CreateCluster(w http.ResponseWriter, r *http.Request) {
	var in imi.ClusterInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if in.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	c, err := h.svc.CreateCluster(r.Context(), in)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// AddSignal POST /api/imi/clusters/{id}/signals  {"signal_id": "..."}
func (h *CatalogHandler) AddSignal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SignalID string `json:"signal_id"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if body.SignalID == "" {
		respondError(w, http.StatusBadRequest, "signal_id is required")
		return
	}

	c, err := h.svc.AddSignalToCluster(r.Context(), mux.Vars(r)["id"], body.SignalID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// ListThemes GET /api/imi/themes
func (h *CatalogHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	themes, err := h.svc.ListThemes(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, themes)
}

// Theme GET /api/imi/themes/{slug}
func (h *CatalogHandler) Theme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.svc.ThemeBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, theme)
}

// ThemeSignals GET /api/imi/themes/{slug}/signals
func (h *CatalogHandler) ThemeSignals(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.SignalsForTheme(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}
