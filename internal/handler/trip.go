package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/auth"
	"github.com/alvahercar220901-design/mototaxi-backend/internal/domain"
)

// requestTripResponse is the body returned by POST /trips. The candidate
// driver is an advisory matching hint only — nothing is reserved for it.
type requestTripResponse struct {
	Trip            domain.Trip   `json:"trip"`
	CandidateDriver domain.Driver `json:"candidate_driver"`
}

// tripListResponse is the body returned by GET /trips.
type tripListResponse struct {
	Data []domain.Trip `json:"data"`
}

// RequestTrip handles POST /trips.
func (s *Server) RequestTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, fmt.Errorf("%w: missing identity", domain.ErrForbidden))
		return
	}

	trip, candidate, err := s.dispatch.RequestTrip(r.Context(), id.ActorID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, requestTripResponse{Trip: trip, CandidateDriver: candidate})
}

// ListTrips handles GET /trips: the actor's own trips, newest first.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, fmt.Errorf("%w: missing identity", domain.ErrForbidden))
		return
	}

	trips, err := s.dispatch.ListTrips(r.Context(), id.ActorID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if trips == nil {
		trips = []domain.Trip{}
	}
	writeJSON(w, http.StatusOK, tripListResponse{Data: trips})
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, s.dispatch.GetTrip)
}

// AcceptTrip handles POST /trips/{id}/accept.
func (s *Server) AcceptTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, s.dispatch.AcceptTrip)
}

// StartTrip handles POST /trips/{id}/start.
func (s *Server) StartTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, s.dispatch.StartTrip)
}

// FinishTrip handles POST /trips/{id}/finish.
func (s *Server) FinishTrip(w http.ResponseWriter, r *http.Request) {
	s.tripAction(w, r, s.dispatch.FinishTrip)
}

// CancelTrip handles POST /trips/{id}/cancel. Both roles may reach this
// route; the engine decides from the trip's recorded identities whether
// this actor may cancel in the current state.
func (s *Server) CancelTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, fmt.Errorf("%w: missing identity", domain.ErrForbidden))
		return
	}

	tripID, err := tripIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	trip, err := s.dispatch.CancelTrip(r.Context(), id.ActorID, id.Roles, tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// tripAction is the shared shape of the single-trip operations: resolve the
// identity, parse the path ID, call the engine, return the updated trip.
func (s *Server) tripAction(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, actorID string, tripID uuid.UUID) (domain.Trip, error)) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, fmt.Errorf("%w: missing identity", domain.ErrForbidden))
		return
	}

	tripID, err := tripIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	trip, err := op(r.Context(), id.ActorID, tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// tripIDParam parses the {id} path parameter as a UUID.
func tripIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("%w: invalid trip id", domain.ErrValidation)
	}
	return id, nil
}
