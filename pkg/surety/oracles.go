package surety

import "go.uber.org/zap"

// RegisterOracle admits the caller as an oracle against the exact
// registration fee and assigns its fixed index labels. Re-registration by
// an already-registered oracle returns the existing labels without charging
// again.
func (s *Service) RegisterOracle(caller ParticipantID, fee uint64) ([]uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperational(); err != nil {
		return nil, err
	}
	if indices, ok := s.oracles[caller]; ok {
		return append([]uint8(nil), indices...), nil
	}
	if fee != s.params.RegistrationFee {
		return nil, ErrWrongFee
	}

	indices := s.assignIndices(caller)
	s.oracles[caller] = indices

	s.logger.Info("Oracle registered",
		zap.String("oracle", string(caller)),
		zap.Uint8s("indices", indices))
	return append([]uint8(nil), indices...), nil
}

// assignIndices draws IndicesPerOracle distinct labels for caller. Labels
// are immutable after assignment. Lock held.
func (s *Service) assignIndices(caller ParticipantID) []uint8 {
	count := s.params.IndicesPerOracle
	if int(s.params.IndexSpace) < count {
		count = int(s.params.IndexSpace)
	}
	indices := make([]uint8, 0, count)
	for len(indices) < count {
		idx := s.draw(caller, uint64(len(indices)))
		dup := false
		for _, have := range indices {
			if have == idx {
				dup = true
				break
			}
		}
		if !dup {
			indices = append(indices, idx)
		}
	}
	return indices
}

// OracleIndices returns the caller's assigned labels.
func (s *Service) OracleIndices(caller ParticipantID) ([]uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	indices, ok := s.oracles[caller]
	if !ok {
		return nil, ErrNotRegistered
	}
	return append([]uint8(nil), indices...), nil
}

// RegistrationFee returns the exact fee an oracle must pay to register.
func (s *Service) RegistrationFee() uint64 {
	return s.params.RegistrationFee
}
