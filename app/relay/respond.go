package relay

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/suretyx/suretyx/pkg/redis"
	"github.com/suretyx/suretyx/pkg/retry"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
	"go.uber.org/zap"
)

// consumeRequests blocks on the oracle.request channel until ctx is
// cancelled, fanning every event out to the eligible oracles.
func (a *App) consumeRequests(ctx context.Context) {
	sub := a.RedisClient.Subscribe(ctx, redis.ChannelOracleRequest)
	defer func() { _ = sub.Close() }()

	a.Logger.Info("Listening for status requests", zap.String("channel", redis.ChannelOracleRequest))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev surety.RequestOpened
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				a.Logger.Warn("Dropping malformed status request event", zap.Error(err))
				continue
			}
			a.handleRequest(ctx, ev)
		}
	}
}

var responseCodes = []surety.StatusCode{
	surety.StatusOnTime,
	surety.StatusLateAirline,
	surety.StatusLateWeather,
	surety.StatusLateTechnical,
	surety.StatusLateOther,
}

// pickStatus chooses the status code the fleet reports for one request.
// Real deployments would consult a flight-data feed here; the simulated
// fleet either reports a pinned code or rolls a die per request.
func (a *App) pickStatus() surety.StatusCode {
	if a.fixedStatus != 0 {
		return surety.StatusCode(a.fixedStatus)
	}
	return responseCodes[rand.IntN(len(responseCodes))]
}

// handleRequest submits one response per eligible oracle through the
// worker pool. All oracles of one fleet agree on the code, so a quorum
// lands as soon as enough of them hold the index.
func (a *App) handleRequest(ctx context.Context, ev surety.RequestOpened) {
	eligible := a.oraclesHolding(ev.Index)
	code := a.pickStatus()

	a.Logger.Info("Status request received",
		zap.String("airline", string(ev.Flight.Airline)),
		zap.String("flight", ev.Flight.Number),
		zap.Uint8("index", ev.Index),
		zap.Int("eligible", len(eligible)),
		zap.String("status", code.String()))

	req := rpc.OracleResponseRequest{
		FlightRef: rpc.FlightRef{
			Airline:   string(ev.Flight.Airline),
			Flight:    ev.Flight.Number,
			Departure: ev.Flight.Departure,
		},
		Index:  ev.Index,
		Status: uint32(code),
	}

	for _, oracle := range eligible {
		oracle := oracle
		a.Pool.Submit(func() {
			a.submitResponse(ctx, oracle, req)
		})
	}
}

// submitResponse pushes one oracle's answer with a short retry budget. A
// rejection (request finalized, duplicate response, lost race) is final
// and not retried; only transport failures are.
func (a *App) submitResponse(ctx context.Context, oracle *Oracle, req rpc.OracleResponseRequest) {
	err := retry.WithBackoff(ctx, retry.QuickConfig(), a.Logger, "submit oracle response", func() error {
		finalized, err := a.Client.SubmitResponse(ctx, oracle.Token, req)
		if err != nil {
			var se *rpc.StatusError
			if errors.As(err, &se) && (se.Code == http.StatusConflict || se.Code == http.StatusNotFound) {
				a.Logger.Debug("Response moot",
					zap.String("oracle", oracle.ID),
					zap.String("reason", se.Message))
				return nil
			}
			return err
		}
		if finalized {
			a.Logger.Info("Response finalized the request",
				zap.String("oracle", oracle.ID),
				zap.String("flight", req.Flight),
				zap.Uint8("index", req.Index))
		}
		return nil
	})
	if err != nil {
		a.Logger.Warn("Failed to submit oracle response",
			zap.String("oracle", oracle.ID),
			zap.String("flight", req.Flight),
			zap.Error(err))
	}
}
