package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/imi/internal/contact"
	"github.com/wonny/imi/internal/forecast"
	"github.com/wonny/imi/pkg/logger"
)

// ForecastHandler proxies the forecast service and the contact relay.
// Forecast endpoints always answer 200 with either a real or a neutral fallback body.
// ⭐ SSOT: Forecast API 핸들러는 이 구조체에서만
type ForecastHandler struct {
	client *forecast.Client
	relay  *contact.Relay
	logger *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(client *forecast.Client, relay *contact.Relay, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{client: client, relay: relay, logger: log}
}

// News POST /api/forecast/news
func (h *ForecastHandler) News(w http.ResponseWriter, r *http.Request) {
	var req forecast.NewsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.Ticker) == "" && strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "ticker or title is required")
		return
	}
	respondJSON(w, http.StatusOK, h.client.ForecastNews(r.Context(), req))
}

// Forecast POST /api/forecast
func (h *ForecastHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	var req forecast.ForecastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, h.client.Forecast(r.Context(), req))
}

// Analyze POST /api/analyze
func (h *ForecastHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, h.client.Analyze(r.Context(), req.Text))
}

// Receipt GET /api/receipts/{id}
func (h *ForecastHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.client.Receipt(r.Context(), mux.Vars(r)["id"]))
}

// Contact POST /api/contact
func (h *ForecastHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var m contact.Message
	if err := decodeJSON(w, r, &m); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	if err := h.relay.Send(r.Context(), m); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
