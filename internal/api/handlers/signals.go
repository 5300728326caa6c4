package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/imi/internal/aggregation"
	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/imi"
	"github.com/wonny/imi/internal/ingest"
	"github.com/wonny/imi/internal/screener"
	"github.com/wonny/imi/internal/seed"
	"github.com/wonny/imi/internal/signals"
	"github.com/wonny/imi/pkg/logger"
)

// SignalHandler serves the signal feed, dashboard and screener
// ⭐ SSOT: 시그널 API 핸들러는 이 구조체에서만
type SignalHandler struct {
	svc      *imi.Service
	importer *ingest.Importer
	logger   *logger.Logger
}

// NewSignalHandler creates a new signal handler
func NewSignalHandler(svc *imi.Service, importer *ingest.Importer, log *logger.Logger) *SignalHandler {
	return &SignalHandler{svc: svc, importer: importer, logger: log}
}

// List returns the feed
// GET /api/imi/signals
func (h *SignalHandler) List(w http.ResponseWriter, r *http.Request) {
	feed, err := h.svc.Feed(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, feed)
}

// Upsert stores a signal in any accepted input shape
// POST /api/imi/signals
func (h *SignalHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var raw contracts.RawSignal
	if err := decodeJSON(w, r, &raw); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	sig, err := h.svc.UpsertSignal(r.Context(), raw)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, sig)
}

// Get returns one signal
// GET /api/imi/signals/{id}
func (h *SignalHandler) Get(w http.ResponseWriter, r *http.Request) {
	sig, err := h.svc.GetSignal(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, sig)
}

// Seed seeds an empty store with the posted list, or the embedded feed when none is posted
// POST /api/imi/signals/seed
func (h *SignalHandler) Seed(w http.ResponseWriter, r *http.Request) {
	var raws []contracts.RawSignal
	if err := decodeJSON(w, r, &raws); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	var initial []contracts.Signal
	if len(raws) > 0 {
		initial = signals.NormalizeAll(raws)
	} else {
		var err error
		if initial, err = seed.Signals(); err != nil {
			respondServiceError(w, h.logger, err)
			return
		}
	}

	out, err := h.svc.SeedSignals(r.Context(), initial)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// Import fetches an article and stores the forecast signal
// POST /api/imi/signals/import
func (h *SignalHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ingest.ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	res, err := h.importer.Import(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Dashboard returns filtered, sorted signals with header stats and rollups
// GET /api/imi/dashboard?window=&sort=&search=&tickers=&min_conf=&direction=
func (h *SignalHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q, err := aggregation.ParseQuery(r.URL.Query())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	d, err := h.svc.Dashboard(r.Context(), q)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// Snapshot returns the cached default dashboard
// GET /api/imi/dashboard/snapshot
func (h *SignalHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.CachedDashboard(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// Screener runs the backtest screener
// POST /api/imi/screener
func (h *SignalHandler) Screener(w http.ResponseWriter, r *http.Request) {
	var req screener.Request
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	criteria, err := req.Criteria()
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	res, err := h.svc.RunScreener(r.Context(), criteria)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
