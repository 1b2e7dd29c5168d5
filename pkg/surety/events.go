package surety

// RequestOpened is the fan-out notification emitted when a status request is
// opened. Oracle relays filter their fleet by Index and answer on behalf of
// the oracles that hold it.
type RequestOpened struct {
	Flight FlightKey `json:"flight"`
	Index  uint8     `json:"index"`
}

// Credited is emitted once per policy when insurees are credited after a
// fault finalization.
type Credited struct {
	Passenger ParticipantID `json:"passenger"`
	Flight    FlightKey     `json:"flight"`
	Amount    uint64        `json:"amount"`
}

// StatusFinalized is emitted exactly once per request when a quorum of
// matching oracle responses finalizes a flight status.
type StatusFinalized struct {
	Flight FlightKey  `json:"flight"`
	Index  uint8      `json:"index"`
	Status StatusCode `json:"status"`
}

// Emitter receives the externally observable events of the core. Emitting is
// best-effort: implementations must not block the action that produced the
// event and must not return errors into it.
type Emitter interface {
	StatusRequestOpened(ev RequestOpened)
	PassengerCredited(ev Credited)
	FlightStatusFinalized(ev StatusFinalized)
}

// NopEmitter discards all events.
type NopEmitter struct{}

func (NopEmitter) StatusRequestOpened(RequestOpened)     {}
func (NopEmitter) PassengerCredited(Credited)            {}
func (NopEmitter) FlightStatusFinalized(StatusFinalized) {}
