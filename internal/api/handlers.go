package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// ApiResponse is the envelope for all JSON responses
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response := ApiResponse{
		Success: code < 400,
		Data:    payload,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	code := apperrors.StatusCode(err)
	message := err.Error()

	var appErr *apperrors.AppError

	if errors.As(err, &appErr) {
		message = appErr.Message
	} else if code >= 500 {
		// Don't leak internals on unexpected errors
		s.logger.Error("Unhandled error", "error", err)
		message = "internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if encErr := json.NewEncoder(w).Encode(ApiResponse{Success: false, Error: message}); encErr != nil {
		s.logger.Error("Failed to encode error response", "error", encErr)
	}
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondWithError(w, apperrors.NewInvalidInputError("invalid request body"))
		return false
	}

	return true
}

func pagination(r *http.Request) (limit, offset int) {
	limit = defaultPageLimit

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}

// healthHandler reports service liveness plus the state of the distance
// service circuit breaker and a move status census.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status": "ok",
	}

	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("Database ping failed", "error", err)
		health["status"] = "degraded"
		health["database"] = "unreachable"
		s.respondWithJSON(w, http.StatusServiceUnavailable, health)
		return
	}

	health["database"] = "ok"
	health["distance_breaker"] = s.distanceClient.BreakerMetrics()

	if counts, err := s.moveRepo.CountByStatus(r.Context()); err == nil {
		health["moves"] = counts
	}

	s.respondWithJSON(w, http.StatusOK, health)
}
