// Package handler implements the HTTP layer of the mototaxi dispatch API.
// Handlers are methods on Server, split into domain-specific files (trip.go,
// driver.go, health.go). They decode requests, call the dispatch engine, and
// map its errors to status codes — no business logic lives here.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/auth"
	"github.com/alvahercar220901-design/mototaxi-backend/internal/domain"
	"github.com/alvahercar220901-design/mototaxi-backend/internal/middleware"
	"github.com/alvahercar220901-design/mototaxi-backend/spec"
)

// Dispatcher defines the engine operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type Dispatcher interface {
	RequestTrip(ctx context.Context, passengerID string) (domain.Trip, domain.Driver, error)
	AcceptTrip(ctx context.Context, driverID string, tripID uuid.UUID) (domain.Trip, error)
	StartTrip(ctx context.Context, driverID string, tripID uuid.UUID) (domain.Trip, error)
	FinishTrip(ctx context.Context, driverID string, tripID uuid.UUID) (domain.Trip, error)
	CancelTrip(ctx context.Context, actorID string, roles []string, tripID uuid.UUID) (domain.Trip, error)
	GetTrip(ctx context.Context, actorID string, tripID uuid.UUID) (domain.Trip, error)
	ListTrips(ctx context.Context, actorID string) ([]domain.Trip, error)
	SetDriverAvailability(ctx context.Context, driverID string, availability domain.Availability) (domain.Driver, error)
}

// Server holds the handler dependencies.
type Server struct {
	dispatch Dispatcher
}

// NewServer constructs the Server with all its dependencies.
func NewServer(dispatch Dispatcher) *Server {
	return &Server{dispatch: dispatch}
}

// Routes builds the API router. authn is the authentication middleware that
// resolves bearer tokens into identities; everything under /trips and
// /drivers sits behind it, while health, metrics, and the API document
// stay open.
func (s *Server) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Route("/trips", func(r chi.Router) {
			r.With(middleware.RequireRole(auth.RolePassenger)).Post("/", s.RequestTrip)
			r.Get("/", s.ListTrips)
			r.Get("/{id}", s.GetTrip)
			r.With(middleware.RequireRole(auth.RoleDriver)).Post("/{id}/accept", s.AcceptTrip)
			r.With(middleware.RequireRole(auth.RoleDriver)).Post("/{id}/start", s.StartTrip)
			r.With(middleware.RequireRole(auth.RoleDriver)).Post("/{id}/finish", s.FinishTrip)
			r.Post("/{id}/cancel", s.CancelTrip)
		})

		r.With(middleware.RequireRole(auth.RoleDriver)).
			Put("/drivers/me/availability", s.SetDriverAvailability)
	})

	return r
}

// GetOpenAPI serves the embedded API document.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
