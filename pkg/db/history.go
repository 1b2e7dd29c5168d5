package db

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

func (h *HistoryDB) initActions(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			ts DateTime64(3) CODEC(Delta, ZSTD),
			actor String CODEC(ZSTD),
			action LowCardinality(String),
			airline String CODEC(ZSTD),
			flight String CODEC(ZSTD),
			departure Int64,
			amount UInt64,
			status_code UInt32,
			rejected UInt8,
			error String CODEC(ZSTD)
		) ENGINE = MergeTree
		ORDER BY (ts, action)
	`, h.Name, ActionsTableName)
	if err := h.Db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", ActionsTableName, err)
	}
	return nil
}

func (h *HistoryDB) initRequests(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			ts DateTime64(3) CODEC(Delta, ZSTD),
			airline String CODEC(ZSTD),
			flight String CODEC(ZSTD),
			departure Int64,
			request_index UInt8,
			event LowCardinality(String),
			status_code UInt32
		) ENGINE = MergeTree
		ORDER BY (airline, flight, departure, ts)
	`, h.Name, RequestsTableName)
	if err := h.Db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", RequestsTableName, err)
	}
	return nil
}

func (h *HistoryDB) initPayouts(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."%s" (
			ts DateTime64(3) CODEC(Delta, ZSTD),
			passenger String CODEC(ZSTD),
			airline String CODEC(ZSTD),
			flight String CODEC(ZSTD),
			departure Int64,
			amount UInt64,
			kind LowCardinality(String)
		) ENGINE = MergeTree
		ORDER BY (passenger, ts)
	`, h.Name, PayoutsTableName)
	if err := h.Db.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", PayoutsTableName, err)
	}
	return nil
}

// InsertAction appends one resolved action.
func (h *HistoryDB) InsertAction(ctx context.Context, a *Action) error {
	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (
		ts, actor, action, airline, flight, departure, amount, status_code, rejected, error
	) VALUES`, h.Name, ActionsTableName)
	batch, err := h.Db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	if err = batch.Append(a.Ts, a.Actor, a.Action, a.Airline, a.Flight, a.Departure, a.Amount, a.Status, a.Rejected, a.Error); err != nil {
		return err
	}
	return batch.Send()
}

// InsertRequestEvent appends one status-request lifecycle row.
func (h *HistoryDB) InsertRequestEvent(ctx context.Context, e *RequestEvent) error {
	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (
		ts, airline, flight, departure, request_index, event, status_code
	) VALUES`, h.Name, RequestsTableName)
	batch, err := h.Db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	if err = batch.Append(e.Ts, e.Airline, e.Flight, e.Departure, e.Index, e.Event, e.Status); err != nil {
		return err
	}
	return batch.Send()
}

// InsertPayout appends one credit or withdrawal row.
func (h *HistoryDB) InsertPayout(ctx context.Context, p *Payout) error {
	query := fmt.Sprintf(`INSERT INTO "%s"."%s" (
		ts, passenger, airline, flight, departure, amount, kind
	) VALUES`, h.Name, PayoutsTableName)
	batch, err := h.Db.PrepareBatch(ctx, query)
	if err != nil {
		return err
	}
	defer func(batch driver.Batch) {
		_ = batch.Abort()
	}(batch)

	if err = batch.Append(p.Ts, p.Passenger, p.Airline, p.Flight, p.Departure, p.Amount, p.Kind); err != nil {
		return err
	}
	return batch.Send()
}
