package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/utils"
	"go.uber.org/zap"
)

// BootstrapNetwork seeds a demo network through the node API: a handful of
// funded airlines and one flight each, so a fresh deployment has something
// for the sweeper, the oracles and the dapp to act on. Every step is
// idempotent, a restarted relay tops up what is missing and skips the rest.
func (a *App) BootstrapNetwork(ctx context.Context) error {
	count := utils.EnvInt("RELAY_BOOTSTRAP_AIRLINES", 5)
	funding := utils.EnvUint64("RELAY_BOOTSTRAP_FUNDING", 10_000_000)

	// The first airline is seeded by the node itself; the rest follow its
	// naming scheme.
	ids := []string{utils.Env("FIRST_AIRLINE_ID", "airline-1")}
	for i := 2; i <= count; i++ {
		ids = append(ids, fmt.Sprintf("airline-%d", i))
	}

	// Tomorrow, on the hour, so repeated bootstraps within the same hour
	// land on the same flight key.
	departure := time.Now().Add(24 * time.Hour).Truncate(time.Hour).Unix()

	var voters []string
	for n, id := range ids {
		token, err := a.Client.MintToken(ctx, id)
		if err != nil {
			return fmt.Errorf("mint token for %s: %w", id, err)
		}

		if n > 0 {
			if err := a.nominateAirline(ctx, id, voters); err != nil {
				return err
			}
		}

		info, err := a.Client.GetAirline(ctx, id)
		if err != nil {
			return fmt.Errorf("read airline %s: %w", id, err)
		}
		if info.Funds < funding {
			if _, err := a.Client.FundAirline(ctx, token, id, funding-info.Funds); err != nil {
				return fmt.Errorf("fund airline %s: %w", id, err)
			}
		}
		voters = append(voters, token)

		flight := rpc.FlightRef{Airline: id, Flight: fmt.Sprintf("SX%d", 100+n), Departure: departure}
		if err := a.Client.RegisterFlight(ctx, token, flight); err != nil && !isConflict(err) {
			return fmt.Errorf("register flight %s for %s: %w", flight.Flight, id, err)
		}

		a.Logger.Info("Bootstrapped airline",
			zap.String("airline", id),
			zap.String("flight", flight.Flight),
			zap.Int64("departure", departure))
	}

	a.Logger.Info("Demo network ready", zap.Int("airlines", len(ids)))
	return nil
}

// nominateAirline collects votes from the already funded airlines until
// the nominee is admitted. Early airlines are admitted on the first call;
// once the registry is large enough each call is one vote toward the
// majority.
func (a *App) nominateAirline(ctx context.Context, nominee string, voters []string) error {
	for _, voter := range voters {
		res, err := a.Client.NominateAirline(ctx, voter, nominee)
		if err != nil {
			// Already registered, or this voter already voted on an
			// earlier run; the readback below settles it.
			if isConflict(err) {
				continue
			}
			return fmt.Errorf("nominate %s: %w", nominee, err)
		}
		if res.Registered {
			return nil
		}
	}

	info, err := a.Client.GetAirline(ctx, nominee)
	if err == nil && info.Registered {
		return nil
	}
	return fmt.Errorf("nominate %s: not admitted after %d votes", nominee, len(voters))
}

func isConflict(err error) bool {
	var se *rpc.StatusError
	return errors.As(err, &se) && se.Code == http.StatusConflict
}
