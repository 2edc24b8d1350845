// Package api exposes the application over a JSON HTTP interface, including
// a server-sent-events stream for live expense updates.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/duotrip/duotrip/internal/auth"
	"github.com/duotrip/duotrip/internal/ledger"
	"github.com/duotrip/duotrip/internal/middleware"
	"github.com/duotrip/duotrip/internal/places"
	"github.com/duotrip/duotrip/internal/realtime"
	"github.com/duotrip/duotrip/internal/service"
)

// Server bundles the application services behind HTTP handlers.
type Server struct {
	trips         *service.TripService
	ledgers       *ledger.Manager
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	hub           *realtime.Hub
	finder        *places.Finder
}

// NewServer creates a Server over the given collaborators.
func NewServer(
	trips *service.TripService,
	ledgers *ledger.Manager,
	authenticator auth.Authenticator,
	jwtManager *auth.JWTManager,
	hub *realtime.Hub,
	finder *places.Finder,
) *Server {
	return &Server{
		trips:         trips,
		ledgers:       ledgers,
		authenticator: authenticator,
		jwtManager:    jwtManager,
		hub:           hub,
		finder:        finder,
	}
}

// Routes builds the full router: health and metrics unauthenticated, the
// auth endpoints open, everything else behind Bearer JWT.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwtManager))

			r.Get("/me", s.handleMe)
			r.Get("/places", s.handleNearbyPlaces)

			r.Route("/trips", func(r chi.Router) {
				r.Get("/", s.handleListTrips)
				r.Post("/", s.handleCreateTrip)
				r.Post("/join", s.handleJoinTrip)

				r.Route("/{tripID}", func(r chi.Router) {
					r.Get("/", s.handleGetTrip)
					r.Delete("/", s.handleDeleteTrip)

					r.Get("/expenses", s.handleListExpenses)
					r.Post("/expenses", s.handleCreateExpense)
					r.Patch("/expenses/{expenseID}", s.handleUpdateExpense)
					r.Delete("/expenses/{expenseID}", s.handleDeleteExpense)

					r.Get("/balance", s.handleBalance)
					r.Get("/events", s.handleEvents)
				})
			})
		})
	})

	return r
}
