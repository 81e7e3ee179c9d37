package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fleetops/trailer-swap-api/internal/service"
)

func (s *Server) registerTrailerHandler(w http.ResponseWriter, r *http.Request) {
	var params service.RegisterTrailerParams

	if !s.decodeBody(w, r, &params) {
		return
	}

	trailer, err := s.trailerService.RegisterTrailer(r.Context(), params)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, trailer)
}

func (s *Server) getTrailerHandler(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	trailer, err := s.trailerService.GetTrailer(r.Context(), number)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, trailer)
}

func (s *Server) listTrailersHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	status := r.URL.Query().Get("status")
	category := r.URL.Query().Get("category")

	trailers, err := s.trailerService.ListTrailers(r.Context(), status, category, limit, offset)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, trailers)
}

func (s *Server) setTrailerStatusHandler(w http.ResponseWriter, r *http.Request) {
	number := mux.Vars(r)["number"]

	var body struct {
		Status string `json:"status"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	if err := s.trailerService.SetTrailerStatus(r.Context(), number, body.Status); err != nil {
		s.respondWithError(w, err)
		return
	}

	trailer, err := s.trailerService.GetTrailer(r.Context(), number)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, trailer)
}
