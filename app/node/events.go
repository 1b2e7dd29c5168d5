package node

import (
	"context"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/suretyx/suretyx/app/node/types"
	"github.com/suretyx/suretyx/pkg/db"
	"github.com/suretyx/suretyx/pkg/redis"
	"github.com/suretyx/suretyx/pkg/surety"
	"go.uber.org/zap"
)

// eventSink fans the core's events out to Redis (for oracle relays), the
// websocket hub (for dapp clients) and the ClickHouse history. The core
// calls it with its lock held, so every delivery is handed off to a
// goroutine and is best-effort.
type eventSink struct {
	logger  *zap.Logger
	redis   *redis.Client
	history *db.HistoryDB
	hub     *types.Hub
}

const sinkTimeout = 5 * time.Second

func (s *eventSink) deliver(channel, eventType string, payload any, record func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		if s.redis != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				s.logger.Error("Failed to marshal event payload", zap.String("type", eventType), zap.Error(err))
				return
			}
			s.redis.Publish(ctx, channel, raw)
			// Capped stream copy for consumers that join late.
			s.redis.XAdd(ctx, redis.StreamEvents, map[string]interface{}{
				"type":    eventType,
				"payload": string(raw),
			})
		}
		if s.hub != nil {
			s.hub.Broadcast(types.EventMessage{Type: eventType, Payload: payload})
		}
		if s.history != nil && record != nil {
			if err := record(ctx); err != nil {
				s.logger.Warn("Failed to record event in history", zap.String("type", eventType), zap.Error(err))
			}
		}
	}()
}

func (s *eventSink) StatusRequestOpened(ev surety.RequestOpened) {
	s.deliver(redis.ChannelOracleRequest, "oracle.request", ev, func(ctx context.Context) error {
		return s.history.InsertRequestEvent(ctx, &db.RequestEvent{
			Ts:        time.Now().UTC(),
			Airline:   string(ev.Flight.Airline),
			Flight:    ev.Flight.Number,
			Departure: ev.Flight.Departure,
			Index:     ev.Index,
			Event:     "opened",
		})
	})
}

func (s *eventSink) PassengerCredited(ev surety.Credited) {
	s.deliver(redis.ChannelCreditIssued, "credit.issued", ev, func(ctx context.Context) error {
		return s.history.InsertPayout(ctx, &db.Payout{
			Ts:        time.Now().UTC(),
			Passenger: string(ev.Passenger),
			Airline:   string(ev.Flight.Airline),
			Flight:    ev.Flight.Number,
			Departure: ev.Flight.Departure,
			Amount:    ev.Amount,
			Kind:      "credit",
		})
	})
}

func (s *eventSink) FlightStatusFinalized(ev surety.StatusFinalized) {
	s.deliver(redis.ChannelFlightStatus, "flight.status", ev, func(ctx context.Context) error {
		return s.history.InsertRequestEvent(ctx, &db.RequestEvent{
			Ts:        time.Now().UTC(),
			Airline:   string(ev.Flight.Airline),
			Flight:    ev.Flight.Number,
			Departure: ev.Flight.Departure,
			Index:     ev.Index,
			Event:     "finalized",
			Status:    uint32(ev.Status),
		})
	})
}

// treasury is the value-transfer substrate stand-in: the actual value rail
// is external, so a withdrawal is acknowledged here and recorded in the
// payout history for reconciliation.
type treasury struct {
	logger  *zap.Logger
	history *db.HistoryDB
}

func (t *treasury) Transfer(ctx context.Context, to surety.ParticipantID, amount uint64) error {
	t.logger.Info("Value transfer instructed",
		zap.String("to", string(to)),
		zap.Uint64("amount", amount))
	if t.history != nil {
		go func() {
			recCtx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			defer cancel()
			if err := t.history.InsertPayout(recCtx, &db.Payout{
				Ts:        time.Now().UTC(),
				Passenger: string(to),
				Amount:    amount,
				Kind:      "withdrawal",
			}); err != nil {
				t.logger.Warn("Failed to record withdrawal in history", zap.Error(err))
			}
		}()
	}
	return nil
}
