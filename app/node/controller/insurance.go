package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
)

// HandleBuyInsurance escrows a premium for the caller against a flight.
func (c *Controller) HandleBuyInsurance(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	var in rpc.BuyInsuranceRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Airline == "" || in.Flight == "" {
		badRequest(w, "airline, flight, departure and amount are required")
		return
	}

	err := c.App.Core.BuyInsurance(in.Key(), caller, in.Amount)
	c.record("buy_insurance", caller, in.FlightRef, in.Amount, 0, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rpc.InsuredAmountResponse{Amount: in.Amount})
}

// HandleInsuredAmount returns the caller's active premium for a flight.
func (c *Controller) HandleInsuredAmount(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	ref, ok := flightRefFromVars(r)
	if !ok {
		badRequest(w, "departure must be a unix timestamp")
		return
	}
	writeJSON(w, http.StatusOK, rpc.InsuredAmountResponse{
		Amount: c.App.Core.InsuredAmount(caller, ref.Key()),
	})
}

// HandleBalance returns the caller's credited, withdrawable balance.
func (c *Controller) HandleBalance(w http.ResponseWriter, _ *http.Request, caller surety.ParticipantID) {
	writeJSON(w, http.StatusOK, rpc.BalanceResponse{Balance: c.App.Core.Balance(caller)})
}

// HandleWithdraw drains the caller's credited balance.
func (c *Controller) HandleWithdraw(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	amount, err := c.App.Core.Withdraw(r.Context(), caller)
	c.record("withdraw", caller, rpc.FlightRef{}, amount, 0, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.WithdrawResponse{Amount: amount})
}
