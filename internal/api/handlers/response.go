package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/imi/internal/contact"
	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/pkg/logger"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// errBodyTooLarge marks a body cut off at maxBodyBytes
var errBodyTooLarge = errors.New("request body too large")

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps domain sentinels to HTTP status codes
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, contracts.ErrSignalNotFound),
		errors.Is(err, contracts.ErrClusterNotFound),
		errors.Is(err, contracts.ErrThemeNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, contracts.ErrInvalidSignal),
		errors.Is(err, contracts.ErrInvalidQuery),
		errors.Is(err, contact.ErrInvalidMessage):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contact.ErrRelayFailed):
		respondError(w, http.StatusBadGateway, contact.FailureMessage)
	case errors.Is(err, contact.ErrRelayNotConfigured):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.WithError(err).Error("Request failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a bounded JSON body into dest; an empty body leaves dest untouched
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(dest)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", errBodyTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: malformed JSON body: %v", contracts.ErrInvalidQuery, err)
}
