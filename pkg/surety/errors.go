package surety

import "errors"

// Every failed action is rejected synchronously with one of these sentinels
// and leaves no partial state behind. Handlers match with errors.Is.
var (
	ErrSystemPaused        = errors.New("system is paused")
	ErrUnauthorized        = errors.New("caller is not authorized")
	ErrNotFunded           = errors.New("caller airline has not met the funding threshold")
	ErrDuplicateVote       = errors.New("caller already voted for this nominee")
	ErrAlreadyRegistered   = errors.New("already registered")
	ErrNotFundedAirline    = errors.New("flight airline is not a funded airline")
	ErrFlightNotRegistered = errors.New("flight is not registered")
	ErrAlreadyInsured      = errors.New("an active policy already exists for this flight")
	ErrInvalidPremium      = errors.New("premium must be greater than zero")
	ErrPremiumTooHigh      = errors.New("premium exceeds the cap")
	ErrNothingOwed         = errors.New("no credited balance to withdraw")
	ErrWrongFee            = errors.New("oracle registration fee mismatch")
	ErrNotRegistered       = errors.New("caller is not a registered oracle")
	ErrUnknownOracle       = errors.New("responder is not a registered oracle")
	ErrUnknownRequest      = errors.New("no status request matches this key")
	ErrIndexMismatch       = errors.New("request index is not assigned to this oracle")
	ErrAlreadyFinalized    = errors.New("status request is already finalized")
	ErrDuplicateResponse   = errors.New("oracle already responded to this request")
)
