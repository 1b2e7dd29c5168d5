package surety

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BuyInsurance escrows a premium for the caller against a registered
// flight. At most one active policy per (caller, flight); a second purchase
// fails rather than accumulating.
func (s *Service) BuyInsurance(key FlightKey, caller ParticipantID, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperational(); err != nil {
		return err
	}
	if _, ok := s.flights[key]; !ok {
		return ErrFlightNotRegistered
	}
	if value == 0 {
		return ErrInvalidPremium
	}
	if value > s.params.PremiumCap {
		return ErrPremiumTooHigh
	}

	holders := s.policies[key]
	if holders == nil {
		holders = make(map[ParticipantID]uint64)
		s.policies[key] = holders
	}
	if _, exists := holders[caller]; exists {
		return ErrAlreadyInsured
	}
	holders[caller] = value

	s.logger.Info("Insurance purchased",
		zap.String("passenger", string(caller)),
		zap.String("flight", key.Number),
		zap.Uint64("premium", value))
	return nil
}

// creditInsurees converts every active policy on key into a credited
// balance at the payout multiplier. It is only reachable from the consensus
// finalization path, which is what keeps the "who may credit" invariant at
// the type level. Consumed policies are deleted, so a second call for the
// same flight is a no-op. Lock held.
func (s *Service) creditInsurees(key FlightKey) {
	holders := s.policies[key]
	if len(holders) == 0 {
		return
	}
	delete(s.policies, key)

	for passenger, premium := range holders {
		payout := premium * s.params.PayoutNumerator / s.params.PayoutDenominator
		s.balances[passenger] += payout
		s.logger.Info("Passenger credited",
			zap.String("passenger", string(passenger)),
			zap.String("flight", key.Number),
			zap.Uint64("premium", premium),
			zap.Uint64("payout", payout))
		s.emitter.PassengerCredited(Credited{Passenger: passenger, Flight: key, Amount: payout})
	}
}

// Withdraw drains the caller's credited balance. The balance is zeroed and
// the transfer performed under the same critical section, so a concurrent
// withdrawal can only ever observe an already-zeroed balance.
func (s *Service) Withdraw(ctx context.Context, caller ParticipantID) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOperational(); err != nil {
		return 0, err
	}
	amount := s.balances[caller]
	if amount == 0 {
		return 0, ErrNothingOwed
	}

	delete(s.balances, caller)
	if err := s.treasury.Transfer(ctx, caller, amount); err != nil {
		// Reject the whole action: the balance stays owed.
		s.balances[caller] = amount
		return 0, fmt.Errorf("transfer %d to %s: %w", amount, caller, err)
	}

	s.logger.Info("Balance withdrawn",
		zap.String("passenger", string(caller)),
		zap.Uint64("amount", amount))
	return amount, nil
}

// InsuredAmount returns the active premium for (passenger, key), zero if
// none exists or the policy was already consumed by a payout.
func (s *Service) InsuredAmount(passenger ParticipantID, key FlightKey) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policies[key][passenger]
}

// Balance returns the credited, withdrawable balance for passenger.
func (s *Service) Balance(passenger ParticipantID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[passenger]
}
