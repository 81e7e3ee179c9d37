package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
)

// Admin endpoints for inspecting and resolving dead-lettered events.

func (s *Server) listDeadLettersHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := pagination(r)

	messages, err := s.deadLetterRepo.GetPendingMessages(r.Context(), limit)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, messages)
}

func (s *Server) getDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil {
		s.respondWithError(w, apperrors.NewInvalidInputError("invalid dead letter id"))
		return
	}

	message, err := s.deadLetterRepo.GetMessage(r.Context(), id)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, message)
}

func (s *Server) retryDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil {
		s.respondWithError(w, apperrors.NewInvalidInputError("invalid dead letter id"))
		return
	}

	if err := s.deadLetterRepo.Requeue(r.Context(), id); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": "pending"})
}

func (s *Server) discardDeadLetterHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	if err != nil {
		s.respondWithError(w, apperrors.NewInvalidInputError("invalid dead letter id"))
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}

	// Reason is optional
	_ = json.NewDecoder(r.Body).Decode(&body)

	if body.Reason == "" {
		body.Reason = "discarded by operator"
	}

	if err := s.deadLetterRepo.MarkAsDiscarded(r.Context(), id, body.Reason); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{"id": id, "status": "discarded"})
}
