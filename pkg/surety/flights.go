package surety

import "go.uber.org/zap"

// FlightKey addresses a flight by its natural identity. External callers
// can always reconstruct it, so no surrogate id is ever issued.
type FlightKey struct {
	Airline   ParticipantID `json:"airline"`
	Number    string        `json:"flight"`
	Departure int64         `json:"departure"`
}

// FlightInfo is a read-model row returned by Flights.
type FlightInfo struct {
	Key    FlightKey  `json:"key"`
	Status StatusCode `json:"status"`
}

// RegisterFlight creates a flight with status Unknown. The caller must be
// the airline named in the key and must hold the funding threshold.
func (s *Service) RegisterFlight(key FlightKey, caller ParticipantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperational(); err != nil {
		return err
	}
	a := s.airlines[key.Airline]
	if caller != key.Airline || a == nil || !a.Registered || a.Funds < s.params.FundingThreshold {
		return ErrNotFundedAirline
	}
	if _, exists := s.flights[key]; exists {
		return ErrAlreadyRegistered
	}

	s.flights[key] = &flightState{Status: StatusUnknown}
	s.logger.Info("Flight registered",
		zap.String("airline", string(key.Airline)),
		zap.String("flight", key.Number),
		zap.Int64("departure", key.Departure))
	return nil
}

// IsFlightRegistered reports whether key names a registered flight.
func (s *Service) IsFlightRegistered(key FlightKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.flights[key]
	return ok
}

// FlightStatus returns the last finalized status for key, StatusUnknown if
// the flight is unknown or no request has finalized yet.
func (s *Service) FlightStatus(key FlightKey) StatusCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f := s.flights[key]; f != nil {
		return f.Status
	}
	return StatusUnknown
}

// Flights lists every registered flight with its current status.
func (s *Service) Flights() []FlightInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FlightInfo, 0, len(s.flights))
	for key, f := range s.flights {
		out = append(out, FlightInfo{Key: key, Status: f.Status})
	}
	return out
}
