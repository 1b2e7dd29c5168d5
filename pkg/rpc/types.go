package rpc

import "github.com/suretyx/suretyx/pkg/surety"

// Wire types shared by the node controller and its clients. All payloads
// are JSON.

type TokenRequest struct {
	Participant string `json:"participant"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type OperationalStatus struct {
	Operational bool `json:"operational"`
}

type NominateAirlineRequest struct {
	Airline string `json:"airline"`
}

type NominateAirlineResponse struct {
	Registered bool `json:"registered"`
	Votes      int  `json:"votes"`
}

type FundAirlineRequest struct {
	Amount uint64 `json:"amount"`
}

type FundAirlineResponse struct {
	Funds uint64 `json:"funds"`
}

type AirlineResponse struct {
	Airline    string `json:"airline"`
	Registered bool   `json:"registered"`
	Funds      uint64 `json:"funds"`
}

// FlightRef addresses a flight on the wire; it mirrors surety.FlightKey.
type FlightRef struct {
	Airline   string `json:"airline"`
	Flight    string `json:"flight"`
	Departure int64  `json:"departure"`
}

// Key converts the wire form into the core's flight key.
func (f FlightRef) Key() surety.FlightKey {
	return surety.FlightKey{
		Airline:   surety.ParticipantID(f.Airline),
		Number:    f.Flight,
		Departure: f.Departure,
	}
}

type FlightResponse struct {
	FlightRef
	Registered bool   `json:"registered"`
	Status     uint32 `json:"status"`
	StatusName string `json:"statusName"`
}

type FlightsResponse struct {
	Flights []FlightResponse `json:"flights"`
}

type BuyInsuranceRequest struct {
	FlightRef
	Amount uint64 `json:"amount"`
}

type InsuredAmountResponse struct {
	Amount uint64 `json:"amount"`
}

type BalanceResponse struct {
	Balance uint64 `json:"balance"`
}

type WithdrawResponse struct {
	Amount uint64 `json:"amount"`
}

type RegisterOracleRequest struct {
	Fee uint64 `json:"fee"`
}

type IndicesResponse struct {
	Indices []uint8 `json:"indices"`
}

type RegistrationFeeResponse struct {
	Fee uint64 `json:"fee"`
}

type OpenRequestResponse struct {
	FlightRef
	Index uint8 `json:"index"`
}

type OracleResponseRequest struct {
	FlightRef
	Index  uint8  `json:"index"`
	Status uint32 `json:"status"`
}

type OracleResponseResponse struct {
	Finalized bool `json:"finalized"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
