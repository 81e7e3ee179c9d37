package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fleetops/trailer-swap-api/internal/models"
	apperrors "github.com/fleetops/trailer-swap-api/pkg/errors"
)

func (s *Server) addDriverHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		Email        string `json:"email"`
		IsContractor bool   `json:"is_contractor"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	if body.Name == "" {
		s.respondWithError(w, apperrors.NewInvalidInputError("name is required"))
		return
	}

	driver := models.NewDriver(body.Name, body.Phone, body.Email, body.IsContractor)

	if err := s.driverRepo.Add(r.Context(), driver); err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusCreated, driver)
}

func (s *Server) getDriverHandler(w http.ResponseWriter, r *http.Request) {
	driverID := mux.Vars(r)["id"]

	driver, err := s.driverRepo.GetByID(r.Context(), driverID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, driver)
}

func (s *Server) listDriversHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	activeOnly := r.URL.Query().Get("active") == "true"

	drivers, err := s.driverRepo.List(r.Context(), activeOnly, limit, offset)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, drivers)
}

func (s *Server) setDriverActiveHandler(w http.ResponseWriter, r *http.Request) {
	driverID := mux.Vars(r)["id"]

	var body struct {
		Active bool `json:"active"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	if err := s.driverRepo.SetActive(r.Context(), driverID, body.Active); err != nil {
		s.respondWithError(w, err)
		return
	}

	driver, err := s.driverRepo.GetByID(r.Context(), driverID)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, driver)
}
