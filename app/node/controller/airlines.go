package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
)

// HandleNominateAirline nominates (or votes for) a new airline on behalf of
// the calling airline.
func (c *Controller) HandleNominateAirline(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	var in rpc.NominateAirlineRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Airline == "" {
		badRequest(w, "airline is required")
		return
	}

	registered, votes, err := c.App.Core.NominateAirline(surety.ParticipantID(in.Airline), caller)
	c.record("nominate_airline", caller, rpc.FlightRef{Airline: in.Airline}, 0, 0, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.NominateAirlineResponse{Registered: registered, Votes: votes})
}

// HandleFundAirline tops up the caller's airline funding. The path id must
// match the caller; the core rejects funding on behalf of others.
func (c *Controller) HandleFundAirline(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	airline := surety.ParticipantID(mux.Vars(r)["id"])

	var in rpc.FundAirlineRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Amount == 0 {
		badRequest(w, "amount is required")
		return
	}

	funds, err := c.App.Core.FundAirline(airline, in.Amount, caller)
	c.record("fund_airline", caller, rpc.FlightRef{Airline: string(airline)}, in.Amount, 0, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.FundAirlineResponse{Funds: funds})
}

// HandleGetAirline is a pure read of an airline's registration and funds.
func (c *Controller) HandleGetAirline(w http.ResponseWriter, r *http.Request) {
	id := surety.ParticipantID(mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, rpc.AirlineResponse{
		Airline:    string(id),
		Registered: c.App.Core.IsAirline(id),
		Funds:      c.App.Core.AirlineFunds(id),
	})
}
