package controller

import (
	"net/http"
	"strconv"

	"github.com/suretyx/suretyx/pkg/surety"
)

// HandleRecentActions returns the latest resolved actions from the audit
// trail.
func (c *Controller) HandleRecentActions(w http.ResponseWriter, r *http.Request) {
	if c.App.History == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history not available"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	actions, err := c.App.History.RecentActions(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history query failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

// HandleFlightHistory returns the request lifecycle rows for one flight.
func (c *Controller) HandleFlightHistory(w http.ResponseWriter, r *http.Request) {
	if c.App.History == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history not available"})
		return
	}
	ref, ok := flightRefFromVars(r)
	if !ok {
		badRequest(w, "departure must be a unix timestamp")
		return
	}
	events, err := c.App.History.FlightRequestHistory(r.Context(), ref.Airline, ref.Flight, ref.Departure)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history query failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// HandlePassengerPayouts returns the caller's credit/withdrawal history.
func (c *Controller) HandlePassengerPayouts(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	if c.App.History == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "history not available"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	payouts, err := c.App.History.PassengerPayouts(r.Context(), string(caller), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history query failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"payouts": payouts})
}
