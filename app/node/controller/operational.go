package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
)

// HandleIsOperational reports the operational gate. Read-only, no auth.
func (c *Controller) HandleIsOperational(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rpc.OperationalStatus{Operational: c.App.Core.IsOperational()})
}

// HandleSetOperational flips the gate. The core enforces that only the
// owner may do this.
func (c *Controller) HandleSetOperational(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	var in rpc.OperationalStatus
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "bad json")
		return
	}

	err := c.App.Core.SetOperational(in.Operational, caller)
	c.record("set_operational", caller, rpc.FlightRef{}, 0, 0, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.OperationalStatus{Operational: in.Operational})
}
