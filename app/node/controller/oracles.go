package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
)

// HandleRegisterOracle admits the caller as an oracle for the exact
// registration fee and returns its index labels. Re-registration returns
// the existing labels.
func (c *Controller) HandleRegisterOracle(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	var in rpc.RegisterOracleRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "bad json")
		return
	}

	indices, err := c.App.Core.RegisterOracle(caller, in.Fee)
	c.record("register_oracle", caller, rpc.FlightRef{}, in.Fee, 0, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.IndicesResponse{Indices: indices})
}

// HandleOracleIndices returns the caller's assigned index labels.
func (c *Controller) HandleOracleIndices(w http.ResponseWriter, _ *http.Request, caller surety.ParticipantID) {
	indices, err := c.App.Core.OracleIndices(caller)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.IndicesResponse{Indices: indices})
}

// HandleRegistrationFee returns the oracle registration fee.
func (c *Controller) HandleRegistrationFee(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rpc.RegistrationFeeResponse{Fee: c.App.Core.RegistrationFee()})
}
