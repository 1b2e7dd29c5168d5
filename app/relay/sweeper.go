package relay

import (
	"context"
	"time"

	"github.com/suretyx/suretyx/pkg/surety"
	"go.uber.org/zap"
)

// SweepDepartedFlights opens a status request for every registered flight
// whose departure has passed but whose status is still unknown. Requests
// that already exist are reused by the node, so repeated sweeps of the
// same flight are harmless.
func (a *App) SweepDepartedFlights(ctx context.Context) {
	flights, err := a.Client.Flights(ctx, a.sweepToken)
	if err != nil {
		a.Logger.Error("Sweeper failed to list flights", zap.Error(err))
		return
	}

	now := time.Now().Unix()
	opened := 0
	for _, flight := range flights {
		if flight.Departure > now || flight.Status != uint32(surety.StatusUnknown) {
			continue
		}
		index, err := a.Client.OpenRequest(ctx, a.sweepToken, flight.FlightRef)
		if err != nil {
			a.Logger.Warn("Sweeper failed to open status request",
				zap.String("airline", flight.Airline),
				zap.String("flight", flight.Flight),
				zap.Error(err))
			continue
		}
		opened++
		a.Logger.Info("Opened status request for departed flight",
			zap.String("airline", flight.Airline),
			zap.String("flight", flight.Flight),
			zap.Int64("departure", flight.Departure),
			zap.Uint8("index", index))
	}

	if opened > 0 {
		a.Logger.Info("Departure sweep complete", zap.Int("opened", opened), zap.Int("flights", len(flights)))
	}
}
