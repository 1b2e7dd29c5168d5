package surety

import "go.uber.org/zap"

// majority is the vote threshold for the next airline: a strict majority of
// the currently registered airlines, rounded up.
func (s *Service) majority() int {
	return (s.registeredAirlines + 1) / 2
}

// NominateAirline proposes a new airline. The caller must be a registered
// airline holding at least the funding threshold. While fewer than
// VoteFreeAirlineLimit airlines are registered the nominee is admitted
// immediately; afterwards each call counts as one vote and the nominee is
// admitted once a strict majority of registered airlines has voted.
//
// It returns whether the nominee is now registered and the votes collected
// so far.
func (s *Service) NominateAirline(nominee, caller ParticipantID) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperational(); err != nil {
		return false, 0, err
	}

	voter := s.airlines[caller]
	if voter == nil || !voter.Registered || voter.Funds < s.params.FundingThreshold {
		return false, 0, ErrNotFunded
	}
	if a := s.airlines[nominee]; a != nil && a.Registered {
		return false, 0, ErrAlreadyRegistered
	}

	if s.registeredAirlines < s.params.VoteFreeAirlineLimit {
		s.admitAirline(nominee)
		return true, 0, nil
	}

	voters := s.votes[nominee]
	if voters == nil {
		voters = make(map[ParticipantID]struct{})
		s.votes[nominee] = voters
	}
	if _, dup := voters[caller]; dup {
		return false, len(voters), ErrDuplicateVote
	}
	voters[caller] = struct{}{}

	need := s.majority()
	if len(voters) < need {
		s.logger.Debug("Airline nomination vote recorded",
			zap.String("nominee", string(nominee)),
			zap.String("voter", string(caller)),
			zap.Int("votes", len(voters)),
			zap.Int("needed", need))
		return false, len(voters), nil
	}

	got := len(voters)
	delete(s.votes, nominee)
	s.admitAirline(nominee)
	return true, got, nil
}

// admitAirline registers a nominee, preserving any funds it accumulated
// before admission. Lock held.
func (s *Service) admitAirline(id ParticipantID) {
	a := s.airlines[id]
	if a == nil {
		a = &airlineState{}
		s.airlines[id] = a
	}
	a.Registered = true
	s.registeredAirlines++
	s.logger.Info("Airline registered",
		zap.String("airline", string(id)),
		zap.Int("registeredAirlines", s.registeredAirlines))
}

// FundAirline tops up an airline's funding. Only self-funding is allowed;
// a participant may fund itself before it is registered, the balance simply
// waits for admission.
func (s *Service) FundAirline(airline ParticipantID, amount uint64, caller ParticipantID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperational(); err != nil {
		return 0, err
	}
	if caller != airline {
		return 0, ErrUnauthorized
	}

	a := s.airlines[airline]
	if a == nil {
		a = &airlineState{}
		s.airlines[airline] = a
	}
	a.Funds += amount
	return a.Funds, nil
}

// IsAirline reports whether id is a registered airline.
func (s *Service) IsAirline(id ParticipantID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.airlines[id]
	return a != nil && a.Registered
}

// AirlineFunds returns the funded amount for id, zero if never funded.
func (s *Service) AirlineFunds(id ParticipantID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a := s.airlines[id]; a != nil {
		return a.Funds
	}
	return 0
}
