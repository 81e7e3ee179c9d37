package api

import (
	"net/http"

	"github.com/fleetops/trailer-swap-api/internal/models"
)

func (s *Server) resolveMileageHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Origin      string `json:"origin"`
		Destination string `json:"destination"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	miles, err := s.resolver.Resolve(r.Context(), body.Origin, body.Destination)

	if err != nil {
		s.respondWithError(w, err)
		return
	}

	from, to := models.NormalizePair(body.Origin, body.Destination)

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"from":  from,
		"to":    to,
		"miles": miles,
	})
}

func (s *Server) overrideMileageHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Origin      string  `json:"origin"`
		Destination string  `json:"destination"`
		Miles       float64 `json:"miles"`
	}

	if !s.decodeBody(w, r, &body) {
		return
	}

	if err := s.resolver.Override(r.Context(), body.Origin, body.Destination, body.Miles); err != nil {
		s.respondWithError(w, err)
		return
	}

	from, to := models.NormalizePair(body.Origin, body.Destination)

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"from":   from,
		"to":     to,
		"miles":  body.Miles,
		"source": models.MileageSourceManual,
	})
}
