package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/alvahercar220901-design/mototaxi-backend/internal/auth"
	"github.com/alvahercar220901-design/mototaxi-backend/internal/domain"
)

// setAvailabilityRequest is the body of PUT /drivers/me/availability.
type setAvailabilityRequest struct {
	Availability string `json:"availability"`
}

// SetDriverAvailability handles PUT /drivers/me/availability. Drivers may go
// available or offline; busy is owned by the dispatch protocol and rejected
// here. The registry row is created lazily on first use.
func (s *Server) SetDriverAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, r, fmt.Errorf("%w: missing identity", domain.ErrForbidden))
		return
	}

	var body setAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid request body", domain.ErrValidation))
		return
	}

	availability, err := domain.ParseAvailability(body.Availability)
	if err != nil {
		writeError(w, r, err)
		return
	}

	driver, err := s.dispatch.SetDriverAvailability(r.Context(), id.ActorID, availability)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, driver)
}
