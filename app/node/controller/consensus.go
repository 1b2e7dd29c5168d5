package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
)

// HandleOpenRequest opens a status request for a flight. Anyone may ask;
// the drawn index decides which oracles can answer.
func (c *Controller) HandleOpenRequest(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	var in rpc.FlightRef
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Airline == "" || in.Flight == "" {
		badRequest(w, "airline, flight and departure are required")
		return
	}

	rk, err := c.App.Core.OpenRequest(in.Key(), caller)
	c.record("open_request", caller, in, 0, 0, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rpc.OpenRequestResponse{FlightRef: in, Index: rk.Index})
}

// HandleSubmitResponse records one oracle response and reports whether it
// finalized the request.
func (c *Controller) HandleSubmitResponse(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	var in rpc.OracleResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Airline == "" || in.Flight == "" {
		badRequest(w, "index, flight key and status are required")
		return
	}
	code := surety.StatusCode(in.Status)
	if !code.Valid() || code == surety.StatusUnknown {
		badRequest(w, "status must be a defined non-unknown status code")
		return
	}

	rk := surety.RequestKey{Flight: in.Key(), Index: in.Index}
	finalized, err := c.App.Core.SubmitResponse(rk, caller, code)
	c.record("submit_response", caller, in.FlightRef, 0, code, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.OracleResponseResponse{Finalized: finalized})
}
