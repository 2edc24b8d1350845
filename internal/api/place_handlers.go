package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/duotrip/duotrip/internal/models"
)

func (s *Server) handleNearbyPlaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: lat must be a number", models.ErrValidation))
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: lng must be a number", models.ErrValidation))
		return
	}
	category := q.Get("category")
	if category == "" {
		writeError(w, fmt.Errorf("%w: category is required", models.ErrValidation))
		return
	}

	radius := 0
	if raw := q.Get("radius"); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil || radius <= 0 {
			writeError(w, fmt.Errorf("%w: radius must be a positive integer", models.ErrValidation))
			return
		}
	}

	results, err := s.finder.Nearby(r.Context(), lat, lng, category, radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlaceResponses(results))
}
