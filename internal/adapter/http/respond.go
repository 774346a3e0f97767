package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/complaint-forecast-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json response", "error", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// writeDomainError maps a domain error onto its status code and error code.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "path", r.URL.Path, "code", code, "error", err)
	}
	writeError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_INPUT"
	case errors.Is(err, domain.ErrUnknownLocality):
		return http.StatusUnprocessableEntity, "UNKNOWN_LOCALITY"
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "MODEL_UNAVAILABLE"
	case errors.Is(err, domain.ErrRefreshInProgress):
		return http.StatusConflict, "REFRESH_IN_PROGRESS"
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusServiceUnavailable, "DATA_UNAVAILABLE"
	case errors.Is(err, domain.ErrTemperatureUnavailable):
		return http.StatusBadGateway, "TEMPERATURE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
