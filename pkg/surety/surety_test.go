package surety

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testOwner        = ParticipantID("owner")
	testFirstAirline = ParticipantID("airline-1")
)

// newTestService builds a service with default params and the standard
// owner/first-airline seed.
func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return New(zaptest.NewLogger(t), DefaultParams(), testOwner, testFirstAirline, opts...)
}

// fundToThreshold self-funds an airline up to the funding threshold.
func fundToThreshold(t *testing.T, s *Service, id ParticipantID) {
	t.Helper()
	_, err := s.FundAirline(id, s.Params().FundingThreshold, id)
	require.NoError(t, err)
}

// addOracle seeds an oracle with fixed index labels, bypassing the random
// draw so tests can target a known request index.
func addOracle(s *Service, id ParticipantID, indices ...uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oracles[id] = indices
}

// captureEmitter records every emitted event.
type captureEmitter struct {
	mu        sync.Mutex
	opened    []RequestOpened
	credited  []Credited
	finalized []StatusFinalized
}

func (c *captureEmitter) StatusRequestOpened(ev RequestOpened) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = append(c.opened, ev)
}

func (c *captureEmitter) PassengerCredited(ev Credited) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credited = append(c.credited, ev)
}

func (c *captureEmitter) FlightStatusFinalized(ev StatusFinalized) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finalized = append(c.finalized, ev)
}

func TestNewSeedsFirstAirline(t *testing.T) {
	s := newTestService(t)

	assert.True(t, s.IsOperational())
	assert.True(t, s.IsAirline(testFirstAirline))
	assert.Zero(t, s.AirlineFunds(testFirstAirline))
	assert.False(t, s.IsAirline("airline-2"))
}

func TestSetOperationalOwnerOnly(t *testing.T) {
	s := newTestService(t)

	require.ErrorIs(t, s.SetOperational(false, testFirstAirline), ErrUnauthorized)
	assert.True(t, s.IsOperational())

	require.NoError(t, s.SetOperational(false, testOwner))
	assert.False(t, s.IsOperational())

	// The gate toggle itself must keep working while paused.
	require.NoError(t, s.SetOperational(true, testOwner))
	assert.True(t, s.IsOperational())
}

func TestPausedGateRejectsEveryAction(t *testing.T) {
	s := newTestService(t)
	fundToThreshold(t, s, testFirstAirline)
	key := FlightKey{Airline: testFirstAirline, Number: "SX100", Departure: 1_700_000_000}
	require.NoError(t, s.RegisterFlight(key, testFirstAirline))
	addOracle(s, "oracle-1", 0, 1, 2)

	require.NoError(t, s.SetOperational(false, testOwner))

	_, _, err := s.NominateAirline("airline-2", testFirstAirline)
	assert.ErrorIs(t, err, ErrSystemPaused)

	_, err = s.FundAirline(testFirstAirline, 1, testFirstAirline)
	assert.ErrorIs(t, err, ErrSystemPaused)

	assert.ErrorIs(t, s.RegisterFlight(key, testFirstAirline), ErrSystemPaused)
	assert.ErrorIs(t, s.BuyInsurance(key, "pax-1", 1), ErrSystemPaused)

	_, err = s.Withdraw(context.Background(), "pax-1")
	assert.ErrorIs(t, err, ErrSystemPaused)

	_, err = s.RegisterOracle("oracle-2", s.Params().RegistrationFee)
	assert.ErrorIs(t, err, ErrSystemPaused)

	_, err = s.OpenRequest(key, "pax-1")
	assert.ErrorIs(t, err, ErrSystemPaused)

	_, err = s.SubmitResponse(RequestKey{Flight: key, Index: 0}, "oracle-1", StatusOnTime)
	assert.ErrorIs(t, err, ErrSystemPaused)

	// Reads stay available while paused.
	assert.True(t, s.IsFlightRegistered(key))
	assert.True(t, s.IsAirline(testFirstAirline))
}
