package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/imi/internal/api/handlers"
	"github.com/wonny/imi/pkg/logger"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// Handlers bundles every route group the router mounts
type Handlers struct {
	Signals  *handlers.SignalHandler
	Users    *handlers.UserHandler
	Catalog  *handlers.CatalogHandler
	Forecast *handlers.ForecastHandler

	// Realtime serves /ws/signals; nil disables the route
	Realtime http.Handler
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, corsOrigin string, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// IMI endpoints
	imi := api.PathPrefix("/imi").Subrouter()

	imi.HandleFunc("/signals", h.Signals.List).Methods("GET")
	imi.HandleFunc("/signals", h.Signals.Upsert).Methods("POST")
	imi.HandleFunc("/signals/seed", h.Signals.Seed).Methods("POST")
	imi.HandleFunc("/signals/import", h.Signals.Import).Methods("POST")
	imi.HandleFunc("/signals/{id}", h.Signals.Get).Methods("GET")
	imi.HandleFunc("/dashboard", h.Signals.Dashboard).Methods("GET")
	imi.HandleFunc("/dashboard/snapshot", h.Signals.Snapshot).Methods("GET")
	imi.HandleFunc("/screener", h.Signals.Screener).Methods("POST")

	imi.HandleFunc("/users/{user}/analyses", h.Users.ListAnalyses).Methods("GET")
	imi.HandleFunc("/users/{user}/analyses", h.Users.AddAnalysis).Methods("POST")
	imi.HandleFunc("/users/{user}/stats", h.Users.Stats).Methods("GET")
	imi.HandleFunc("/users/{user}/watchlists", h.Users.ListWatchlists).Methods("GET")
	imi.HandleFunc("/users/{user}/watchlists", h.Users.SaveWatchlist).Methods("POST")
	imi.HandleFunc("/users/{user}/alerts", h.Users.Alerts).Methods("GET")

	imi.HandleFunc("/clusters", h.Catalog.ListClusters).Methods("GET")
	imi.HandleFunc("/clusters", h.Catalog.CreateCluster).Methods("POST")
	imi.HandleFunc("/clusters/{id}/signals", h.Catalog.AddSignal).Methods("POST")
	imi.HandleFunc("/themes", h.Catalog.ListThemes).Methods("GET")
	imi.HandleFunc("/themes/{slug}", h.Catalog.Theme).Methods("GET")
	imi.HandleFunc("/themes/{slug}/signals", h.Catalog.ThemeSignals).Methods("GET")

	// Forecast proxy + contact
	api.HandleFunc("/forecast/news", h.Forecast.News).Methods("POST")
	api.HandleFunc("/forecast", h.Forecast.Forecast).Methods("POST")
	api.HandleFunc("/analyze", h.Forecast.Analyze).Methods("POST")
	api.HandleFunc("/receipts/{id}", h.Forecast.Receipt).Methods("GET")
	api.HandleFunc("/contact", h.Forecast.Contact).Methods("POST")

	if h.Realtime != nil {
		r.Handle("/ws/signals", h.Realtime).Methods("GET")
	}

	// Preflight requests never match a POST route, so answer them before mux does
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))
	r.Use(corsMiddleware(corsOrigin))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "imi-api",
	})
}

// requestIDMiddleware echoes an incoming X-Request-ID or assigns a fresh uuid
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code for the access log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController and the websocket upgrader reach the hijacker
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// 웹소켓 업그레이드는 Hijacker가 필요하므로 래핑하지 않음
			if r.Header.Get("Upgrade") != "" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"request_id": r.Header.Get(RequestIDHeader),
				"duration":   time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error":      err,
						"path":       r.URL.Path,
						"request_id": r.Header.Get(RequestIDHeader),
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware allows the SPA origin; "*" allows any origin
func corsMiddleware(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reqOrigin := r.Header.Get("Origin"); reqOrigin != "" && (origin == "*" || reqOrigin == origin) {
				w.Header().Set("Access-Control-Allow-Origin", reqOrigin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
				w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			}
			next.ServeHTTP(w, r)
		})
	}
}
