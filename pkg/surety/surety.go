// Package surety implements the flight-delay insurance state machine:
// airline governance, flight registry, escrowed premiums with credited
// balances, an oracle directory sharded over a bounded index space, and the
// quorum consensus engine that finalizes flight statuses.
//
// All mutating operations are applied one at a time under a single lock, so
// every action either commits fully or is rejected with one of the sentinel
// errors in errors.go.
package surety

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ParticipantID is an opaque, externally authenticated participant
// identifier. The core only ever compares them for equality.
type ParticipantID string

// Params are the policy constants of the platform. Values are opaque
// integer units; by convention 1_000_000 micro-units make one whole unit.
type Params struct {
	// FundingThreshold is the minimum self-funded amount an airline must
	// hold to nominate other airlines or register flights.
	FundingThreshold uint64
	// PremiumCap is the maximum premium a passenger may pay per policy.
	PremiumCap uint64
	// RegistrationFee is the exact fee an oracle pays to register.
	RegistrationFee uint64
	// IndexSpace bounds the oracle index labels to [0, IndexSpace).
	IndexSpace uint8
	// IndicesPerOracle is the number of index labels assigned per oracle.
	IndicesPerOracle int
	// Quorum is the number of matching responses that finalizes a request.
	Quorum int
	// PayoutNumerator/PayoutDenominator express the payout multiplier
	// applied to a consumed premium (default 3/2, i.e. 1.5x).
	PayoutNumerator   uint64
	PayoutDenominator uint64
	// VoteFreeAirlineLimit is the number of airlines registered without a
	// governance vote; from the next one on, a strict majority of the
	// currently registered airlines is required.
	VoteFreeAirlineLimit int
}

// DefaultParams mirrors the production deployment: 10-unit funding
// threshold, 1-unit premium cap and oracle fee, ten indices, quorum of 3.
func DefaultParams() Params {
	return Params{
		FundingThreshold:     10_000_000,
		PremiumCap:           1_000_000,
		RegistrationFee:      1_000_000,
		IndexSpace:           10,
		IndicesPerOracle:     3,
		Quorum:               3,
		PayoutNumerator:      3,
		PayoutDenominator:    2,
		VoteFreeAirlineLimit: 4,
	}
}

// Treasury moves value units out of the platform to a participant. The core
// calls it with its own lock held, so implementations must not call back
// into the Service.
type Treasury interface {
	Transfer(ctx context.Context, to ParticipantID, amount uint64) error
}

// NopTreasury accepts every transfer. Useful when the value substrate is
// handled entirely out of band.
type NopTreasury struct{}

func (NopTreasury) Transfer(context.Context, ParticipantID, uint64) error { return nil }

type airlineState struct {
	Registered bool
	Funds      uint64
}

type flightState struct {
	Status StatusCode
}

// Service is the committed state of the platform plus the lock that
// serializes every action applied to it.
type Service struct {
	mu     sync.Mutex
	logger *zap.Logger

	params   Params
	emitter  Emitter
	treasury Treasury

	owner       ParticipantID
	operational bool

	airlines           map[ParticipantID]*airlineState
	registeredAirlines int
	// votes is keyed nominee -> voter so a voter cannot vote twice for the
	// same nominee.
	votes map[ParticipantID]map[ParticipantID]struct{}

	flights map[FlightKey]*flightState

	// policies holds escrowed premiums per flight per passenger. An entry
	// is deleted the moment it is consumed, which is what makes crediting
	// idempotent.
	policies map[FlightKey]map[ParticipantID]uint64
	balances map[ParticipantID]uint64

	oracles  map[ParticipantID][]uint8
	requests map[RequestKey]*requestState

	// nonce advances once per pseudo-random draw under the lock.
	nonce uint64
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithEmitter wires the event fan-out.
func WithEmitter(e Emitter) Option {
	return func(s *Service) { s.emitter = e }
}

// WithTreasury wires the value-transfer substrate used by Withdraw.
func WithTreasury(t Treasury) Option {
	return func(s *Service) { s.treasury = t }
}

// New seeds the platform with its owner and the first airline. The first
// airline is registered immediately with no funding precondition; every
// later airline goes through NominateAirline.
func New(logger *zap.Logger, params Params, owner, firstAirline ParticipantID, opts ...Option) *Service {
	s := &Service{
		logger:      logger,
		params:      params,
		emitter:     NopEmitter{},
		treasury:    NopTreasury{},
		owner:       owner,
		operational: true,
		airlines:    make(map[ParticipantID]*airlineState),
		votes:       make(map[ParticipantID]map[ParticipantID]struct{}),
		flights:     make(map[FlightKey]*flightState),
		policies:    make(map[FlightKey]map[ParticipantID]uint64),
		balances:    make(map[ParticipantID]uint64),
		oracles:     make(map[ParticipantID][]uint8),
		requests:    make(map[RequestKey]*requestState),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.airlines[firstAirline] = &airlineState{Registered: true}
	s.registeredAirlines = 1

	logger.Info("Surety core initialized",
		zap.String("owner", string(owner)),
		zap.String("firstAirline", string(firstAirline)),
		zap.Uint64("fundingThreshold", params.FundingThreshold),
		zap.Uint64("premiumCap", params.PremiumCap),
		zap.Int("quorum", params.Quorum))

	return s
}

// Params returns the policy constants the service was built with.
func (s *Service) Params() Params {
	return s.params
}

// IsOperational reports the state of the operational gate.
func (s *Service) IsOperational() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operational
}

// SetOperational flips the process-wide circuit breaker. Only the owner may
// call it; it is deliberately not gated on the gate itself.
func (s *Service) SetOperational(on bool, caller ParticipantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != s.owner {
		return ErrUnauthorized
	}
	s.operational = on
	s.logger.Warn("Operational gate switched", zap.Bool("operational", on))
	return nil
}

// requireOperational must be called with the lock held, before any state is
// touched, by every mutating operation except SetOperational.
func (s *Service) requireOperational() error {
	if !s.operational {
		return ErrSystemPaused
	}
	return nil
}

// draw produces one pseudo-random value in [0, IndexSpace). The seed mixes
// the caller identity, a monotonically advancing nonce and the wall clock;
// it is unpredictable to external callers before the action is applied and
// reproducible from the audit log afterwards.
func (s *Service) draw(caller ParticipantID, salt uint64) uint8 {
	s.nonce++
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], s.nonce)
	binary.BigEndian.PutUint64(buf[8:], uint64(time.Now().UnixNano())^salt)
	h := sha256.New()
	h.Write([]byte(caller))
	h.Write(buf[:])
	sum := h.Sum(nil)
	return uint8(binary.BigEndian.Uint64(sum[:8]) % uint64(s.params.IndexSpace))
}
