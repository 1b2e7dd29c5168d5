package controller

import (
	"net/http"
	"strconv"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
)

// flightRefFromVars reconstructs a flight key from path variables.
func flightRefFromVars(r *http.Request) (rpc.FlightRef, bool) {
	vars := mux.Vars(r)
	departure, err := strconv.ParseInt(vars["departure"], 10, 64)
	if err != nil {
		return rpc.FlightRef{}, false
	}
	return rpc.FlightRef{
		Airline:   vars["airline"],
		Flight:    vars["flight"],
		Departure: departure,
	}, true
}

// HandleRegisterFlight registers a flight for the calling airline.
func (c *Controller) HandleRegisterFlight(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID) {
	var in rpc.FlightRef
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Airline == "" || in.Flight == "" {
		badRequest(w, "airline, flight and departure are required")
		return
	}

	err := c.App.Core.RegisterFlight(in.Key(), caller)
	c.record("register_flight", caller, in, 0, 0, err)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rpc.FlightResponse{
		FlightRef:  in,
		Registered: true,
		Status:     uint32(surety.StatusUnknown),
		StatusName: surety.StatusUnknown.String(),
	})
}

// HandleListFlights lists every registered flight with its status.
func (c *Controller) HandleListFlights(w http.ResponseWriter, _ *http.Request) {
	infos := c.App.Core.Flights()
	out := rpc.FlightsResponse{Flights: make([]rpc.FlightResponse, 0, len(infos))}
	for _, info := range infos {
		out.Flights = append(out.Flights, rpc.FlightResponse{
			FlightRef: rpc.FlightRef{
				Airline:   string(info.Key.Airline),
				Flight:    info.Key.Number,
				Departure: info.Key.Departure,
			},
			Registered: true,
			Status:     uint32(info.Status),
			StatusName: info.Status.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetFlight is a pure read of one flight's registration and status.
func (c *Controller) HandleGetFlight(w http.ResponseWriter, r *http.Request) {
	ref, ok := flightRefFromVars(r)
	if !ok {
		badRequest(w, "departure must be a unix timestamp")
		return
	}
	key := ref.Key()
	status := c.App.Core.FlightStatus(key)
	writeJSON(w, http.StatusOK, rpc.FlightResponse{
		FlightRef:  ref,
		Registered: c.App.Core.IsFlightRegistered(key),
		Status:     uint32(status),
		StatusName: status.String(),
	})
}
