package controller

import (
	"context"
	"time"

	"github.com/suretyx/suretyx/pkg/db"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
	"github.com/suretyx/suretyx/pkg/utils"
	"go.uber.org/zap"
)

// record appends the resolved action to the audit trail, best-effort.
func (c *Controller) record(action string, actor surety.ParticipantID, flight rpc.FlightRef, amount uint64, status surety.StatusCode, actionErr error) {
	if c.App.History == nil {
		return
	}
	row := &db.Action{
		Ts:        time.Now().UTC(),
		Actor:     string(actor),
		Action:    action,
		Airline:   flight.Airline,
		Flight:    flight.Flight,
		Departure: flight.Departure,
		Amount:    amount,
		Status:    uint32(status),
		Rejected:  utils.BoolToUInt8(actionErr != nil),
	}
	if actionErr != nil {
		row.Error = actionErr.Error()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.App.History.InsertAction(ctx, row); err != nil {
			c.App.Logger.Warn("Failed to record action",
				zap.String("action", action),
				zap.Error(err))
		}
	}()
}
