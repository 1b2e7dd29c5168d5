package surety

import "go.uber.org/zap"

// RequestKey identifies a status request: the flight plus the index drawn
// when the request was opened. Only oracles holding that index may answer.
type RequestKey struct {
	Flight FlightKey `json:"flight"`
	Index  uint8     `json:"index"`
}

type requestState struct {
	Finalized bool
	// Responses buckets oracle ids by the status code they reported.
	Responses map[StatusCode]map[ParticipantID]struct{}
	// Responded guards against an oracle answering twice, regardless of
	// the code it picks the second time.
	Responded map[ParticipantID]struct{}
}

// OpenRequest opens a status request for a registered flight. The request
// index is drawn pseudo-randomly, so the set of oracles able to answer is
// bounded and independent of the requester. Re-opening a key that is
// already open shares the existing response buckets.
func (s *Service) OpenRequest(key FlightKey, caller ParticipantID) (RequestKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperational(); err != nil {
		return RequestKey{}, err
	}
	if _, ok := s.flights[key]; !ok {
		return RequestKey{}, ErrFlightNotRegistered
	}

	rk := RequestKey{Flight: key, Index: s.draw(caller, uint64(key.Departure))}
	if _, exists := s.requests[rk]; !exists {
		s.requests[rk] = &requestState{
			Responses: make(map[StatusCode]map[ParticipantID]struct{}),
			Responded: make(map[ParticipantID]struct{}),
		}
	}

	s.logger.Info("Status request opened",
		zap.String("airline", string(key.Airline)),
		zap.String("flight", key.Number),
		zap.Int64("departure", key.Departure),
		zap.Uint8("index", rk.Index))
	s.emitter.StatusRequestOpened(RequestOpened{Flight: key, Index: rk.Index})
	return rk, nil
}

// SubmitResponse records one oracle's answer to an open request. When a
// code's bucket reaches quorum the request finalizes exactly once: the
// flight status is set (unless a prior request already finalized it) and,
// for a fault status, insurees are credited. It returns whether this
// response finalized the request.
func (s *Service) SubmitResponse(rk RequestKey, oracle ParticipantID, code StatusCode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperational(); err != nil {
		return false, err
	}
	indices, ok := s.oracles[oracle]
	if !ok {
		return false, ErrUnknownOracle
	}
	if !hasIndex(indices, rk.Index) {
		return false, ErrIndexMismatch
	}
	req, ok := s.requests[rk]
	if !ok {
		return false, ErrUnknownRequest
	}
	if req.Finalized {
		return false, ErrAlreadyFinalized
	}
	if _, dup := req.Responded[oracle]; dup {
		return false, ErrDuplicateResponse
	}

	req.Responded[oracle] = struct{}{}
	bucket := req.Responses[code]
	if bucket == nil {
		bucket = make(map[ParticipantID]struct{})
		req.Responses[code] = bucket
	}
	bucket[oracle] = struct{}{}

	if len(bucket) < s.params.Quorum {
		return false, nil
	}

	s.finalize(rk, req, code)
	return true, nil
}

// finalize transitions a request Open -> Finalized. The terminal-state
// invariant lives here: the request can never finalize again, and a flight
// already moved out of StatusUnknown by an earlier request keeps its status
// and triggers no payout. Lock held.
func (s *Service) finalize(rk RequestKey, req *requestState, code StatusCode) {
	req.Finalized = true

	flight := s.flights[rk.Flight]
	stale := flight.Status != StatusUnknown
	if !stale {
		flight.Status = code
		if code.Fault() {
			s.creditInsurees(rk.Flight)
		}
	}

	s.logger.Info("Status request finalized",
		zap.String("airline", string(rk.Flight.Airline)),
		zap.String("flight", rk.Flight.Number),
		zap.Uint8("index", rk.Index),
		zap.String("status", code.String()),
		zap.Bool("stale", stale))
	s.emitter.FlightStatusFinalized(StatusFinalized{Flight: rk.Flight, Index: rk.Index, Status: code})
}

// RequestOpen reports whether rk names a request that is still open.
func (s *Service) RequestOpen(rk RequestKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[rk]
	return ok && !req.Finalized
}

func hasIndex(indices []uint8, idx uint8) bool {
	for _, have := range indices {
		if have == idx {
			return true
		}
	}
	return false
}
