package db

import "time"

// Table names within the history database.
const (
	ActionsTableName  = "actions"
	RequestsTableName = "oracle_requests"
	PayoutsTableName  = "payouts"
)

// Action is one inbound action as the node resolved it. Rejected actions
// carry the sentinel error text so that audits can replay the decision.
type Action struct {
	Ts        time.Time `ch:"ts" json:"ts"`
	Actor     string    `ch:"actor" json:"actor"`
	Action    string    `ch:"action" json:"action"`
	Airline   string    `ch:"airline" json:"airline"`
	Flight    string    `ch:"flight" json:"flight"`
	Departure int64     `ch:"departure" json:"departure"`
	Amount    uint64    `ch:"amount" json:"amount"`
	Status    uint32    `ch:"status_code" json:"statusCode"`
	Rejected  uint8     `ch:"rejected" json:"rejected"`
	Error     string    `ch:"error" json:"error"`
}

// RequestEvent records the lifecycle of a status request: one "opened" row
// per fan-out and one "finalized" row when a quorum lands.
type RequestEvent struct {
	Ts        time.Time `ch:"ts" json:"ts"`
	Airline   string    `ch:"airline" json:"airline"`
	Flight    string    `ch:"flight" json:"flight"`
	Departure int64     `ch:"departure" json:"departure"`
	Index     uint8     `ch:"request_index" json:"index"`
	Event     string    `ch:"event" json:"event"`
	Status    uint32    `ch:"status_code" json:"statusCode"`
}

// Payout records a credit toward or a withdrawal from a passenger balance.
type Payout struct {
	Ts        time.Time `ch:"ts" json:"ts"`
	Passenger string    `ch:"passenger" json:"passenger"`
	Airline   string    `ch:"airline" json:"airline"`
	Flight    string    `ch:"flight" json:"flight"`
	Departure int64     `ch:"departure" json:"departure"`
	Amount    uint64    `ch:"amount" json:"amount"`
	Kind      string    `ch:"kind" json:"kind"` // "credit" or "withdrawal"
}
