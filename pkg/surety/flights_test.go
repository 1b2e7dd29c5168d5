package surety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFlight(t *testing.T) {
	s := newTestService(t)
	key := FlightKey{Airline: testFirstAirline, Number: "SX100", Departure: 1_700_000_000}

	// Unfunded airline cannot register.
	assert.ErrorIs(t, s.RegisterFlight(key, testFirstAirline), ErrNotFundedAirline)

	fundToThreshold(t, s, testFirstAirline)
	require.NoError(t, s.RegisterFlight(key, testFirstAirline))
	assert.True(t, s.IsFlightRegistered(key))
	assert.Equal(t, StatusUnknown, s.FlightStatus(key))

	// Same key twice.
	assert.ErrorIs(t, s.RegisterFlight(key, testFirstAirline), ErrAlreadyRegistered)

	// Same number, different departure, is a different flight.
	later := FlightKey{Airline: testFirstAirline, Number: "SX100", Departure: 1_700_086_400}
	require.NoError(t, s.RegisterFlight(later, testFirstAirline))
}

func TestRegisterFlightCallerMustBeTheAirline(t *testing.T) {
	s := newTestService(t)
	fundToThreshold(t, s, testFirstAirline)
	key := FlightKey{Airline: testFirstAirline, Number: "SX100", Departure: 1_700_000_000}

	// A funded airline cannot register flights on another airline's behalf.
	_, _, err := s.NominateAirline("airline-2", testFirstAirline)
	require.NoError(t, err)
	fundToThreshold(t, s, "airline-2")
	assert.ErrorIs(t, s.RegisterFlight(key, "airline-2"), ErrNotFundedAirline)

	// Nor can an unregistered participant claim an airline key of its own.
	ghost := FlightKey{Airline: "ghost-air", Number: "GH1", Departure: 1}
	assert.ErrorIs(t, s.RegisterFlight(ghost, "ghost-air"), ErrNotFundedAirline)
}

func TestFlightStatusUnknownForUnregistered(t *testing.T) {
	s := newTestService(t)
	key := FlightKey{Airline: testFirstAirline, Number: "SX404", Departure: 1}

	assert.False(t, s.IsFlightRegistered(key))
	assert.Equal(t, StatusUnknown, s.FlightStatus(key))
	assert.Empty(t, s.Flights())
}

func TestFlightsListsEveryFlight(t *testing.T) {
	s := newTestService(t)
	fundToThreshold(t, s, testFirstAirline)

	keys := []FlightKey{
		{Airline: testFirstAirline, Number: "SX100", Departure: 100},
		{Airline: testFirstAirline, Number: "SX200", Departure: 200},
	}
	for _, key := range keys {
		require.NoError(t, s.RegisterFlight(key, testFirstAirline))
	}

	infos := s.Flights()
	require.Len(t, infos, 2)
	seen := make(map[FlightKey]StatusCode)
	for _, info := range infos {
		seen[info.Key] = info.Status
	}
	for _, key := range keys {
		assert.Equal(t, StatusUnknown, seen[key])
	}
}
