package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/duotrip/duotrip/internal/middleware"
	"github.com/duotrip/duotrip/internal/models"
	"github.com/duotrip/duotrip/internal/service"
)

type createTripRequest struct {
	Name        string `json:"name"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Currency    string `json:"currency"`
}

type joinTripRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summaries, err := s.trips.ListTrips(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]tripResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, toTripSummaryResponse(summary))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req createTripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	trip, err := s.trips.CreateTrip(r.Context(), userID, service.TripAttrs{
		Name:        req.Name,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Currency:    req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	members, err := s.trips.Members(r.Context(), trip.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTripResponse(trip, members))
}

func (s *Server) handleJoinTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req joinTripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		writeError(w, fmt.Errorf("%w: invite code is required", models.ErrValidation))
		return
	}

	tripID, err := s.trips.JoinByInviteCode(r.Context(), userID, code)
	if err != nil {
		writeError(w, err)
		return
	}

	trip, members, err := s.trips.GetTrip(r.Context(), tripID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTripResponse(trip, members))
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripID")

	trip, members, err := s.trips.GetTrip(r.Context(), tripID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTripResponse(trip, members))
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	tripID := chi.URLParam(r, "tripID")

	if err := s.trips.DeleteTrip(r.Context(), tripID, userID); err != nil {
		writeError(w, err)
		return
	}

	// The trip is gone; any open view of it must not keep reconciling.
	s.ledgers.Drop(tripID)

	w.WriteHeader(http.StatusNoContent)
}
