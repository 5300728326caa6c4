package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/imi"
	"github.com/wonny/imi/pkg/logger"
)

// UserHandler serves per-user analyses, stats, watchlists and alerts
type UserHandler struct {
	svc    *imi.Service
	logger *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *imi.Service, log *logger.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: log}
}

func userID(r *http.Request) string {
	return mux.Vars(r)["user"]
}

// ListAnalyses GET /api/imi/users/{user}/analyses
func (h *UserHandler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListUserAnalyses(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// AddAnalysis POST /api/imi/users/{user}/analyses
func (h *UserHandler) AddAnalysis(w http.ResponseWriter, r *http.Request) {
	var in contracts.AnalysisInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	a, err := h.svc.AddUserAnalysis(r.Context(), userID(r), in)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

// Stats GET /api/imi/users/{user}/stats
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.UserStats(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// ListWatchlists GET /api/imi/users/{user}/watchlists
func (h *UserHandler) ListWatchlists(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListWatchlists(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// SaveWatchlist POST /api/imi/users/{user}/watchlists
func (h *UserHandler) SaveWatchlist(w http.ResponseWriter, r *http.Request) {
	var in imi.WatchlistInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	wl, err := h.svc.SaveWatchlist(r.Context(), userID(r), in)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, wl)
}

// Alerts GET /api/imi/users/{user}/alerts
func (h *UserHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.WatchlistAlerts(r.Context(), userID(r))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}
