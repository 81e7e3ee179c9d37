package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fleetops/trailer-swap-api/internal/service"
)

func (s *Server) createMoveHandler(w http.ResponseWriter, r *http.Request) {
	var params service.CreateMoveParams

	if !s.decodeBody(w, r, &params) {
		return
	}

	move, err := s.moveService.CreateMove(r.Context(), params)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, move)
}

func (s *Server) getMoveHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	move, err := s.moveService.GetMove(r.Context(), moveID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) listMovesHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	status := r.URL.Query().Get("status")
	driverID := r.URL.Query().Get("driver_id")

	moves, err := s.moveService.ListMoves(r.Context(), status, driverID, limit, offset)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, moves)
}

func (s *Server) assignMoveHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	var body struct {
		DriverID string `json:"driver_id"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	move, err := s.moveService.AssignDriver(r.Context(), moveID, body.DriverID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) dispatchMoveHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	move, err := s.moveService.Dispatch(r.Context(), moveID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) deliverMoveHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	move, err := s.moveService.Deliver(r.Context(), moveID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) setMoveMilesHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	var body struct {
		Miles float64 `json:"miles"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	move, err := s.moveService.SetMiles(r.Context(), moveID, body.Miles)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) attachPODHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	var body struct {
		DocRef string `json:"doc_ref"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	move, err := s.moveService.AttachPOD(r.Context(), moveID, body.DocRef)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) computePaymentHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	move, err := s.moveService.ComputePayment(r.Context(), moveID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) completeMoveHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	move, err := s.moveService.Complete(r.Context(), moveID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) cancelMoveHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	move, err := s.moveService.Cancel(r.Context(), moveID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}

func (s *Server) markMovePaidHandler(w http.ResponseWriter, r *http.Request) {
	moveID := mux.Vars(r)["id"]

	move, err := s.moveService.MarkPaid(r.Context(), moveID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, move)
}
