package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fleetops/trailer-swap-api/internal/models"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
)

func (s *Server) addLocationHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title         string `json:"title"`
		StreetAddress string `json:"street_address"`
		City          string `json:"city"`
		State         string `json:"state"`
		ZipCode       string `json:"zip_code"`
		IsBase        bool   `json:"is_base"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	if body.Title == "" {
		s.respondWithError(w, apperrors.NewInvalidInputError("title is required"))
		return
	}

	loc := models.NewLocation(body.Title, body.StreetAddress, body.City, body.State, body.ZipCode, body.IsBase)

	if err := s.locationRepo.Add(r.Context(), loc); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, loc)
}

func (s *Server) getLocationHandler(w http.ResponseWriter, r *http.Request) {
	title := mux.Vars(r)["title"]

	loc, err := s.locationRepo.GetByTitle(r.Context(), title)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, loc)
}

func (s *Server) listLocationsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	locations, err := s.locationRepo.List(r.Context(), limit, offset)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, locations)
}
