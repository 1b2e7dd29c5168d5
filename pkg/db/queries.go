package db

import (
	"context"
	"fmt"
)

// FlightRequestHistory returns the request lifecycle rows for one flight,
// oldest first.
func (h *HistoryDB) FlightRequestHistory(ctx context.Context, airline, flight string, departure int64) ([]*RequestEvent, error) {
	query := fmt.Sprintf(`
		SELECT ts, airline, flight, departure, request_index, event, status_code
		FROM "%s"."%s"
		WHERE airline = ? AND flight = ? AND departure = ?
		ORDER BY ts ASC
	`, h.Name, RequestsTableName)

	rows, err := h.Db.Query(ctx, query, airline, flight, departure)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", RequestsTableName, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*RequestEvent
	for rows.Next() {
		e := &RequestEvent{}
		if err := rows.ScanStruct(e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PassengerPayouts returns the credit/withdrawal rows for one passenger,
// newest first, capped at limit.
func (h *HistoryDB) PassengerPayouts(ctx context.Context, passenger string, limit int) ([]*Payout, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT ts, passenger, airline, flight, departure, amount, kind
		FROM "%s"."%s"
		WHERE passenger = ?
		ORDER BY ts DESC
		LIMIT %d
	`, h.Name, PayoutsTableName, limit)

	rows, err := h.Db.Query(ctx, query, passenger)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", PayoutsTableName, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Payout
	for rows.Next() {
		p := &Payout{}
		if err := rows.ScanStruct(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecentActions returns the latest resolved actions, newest first.
func (h *HistoryDB) RecentActions(ctx context.Context, limit int) ([]*Action, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT ts, actor, action, airline, flight, departure, amount, status_code, rejected, error
		FROM "%s"."%s"
		ORDER BY ts DESC
		LIMIT %d
	`, h.Name, ActionsTableName, limit)

	rows, err := h.Db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ActionsTableName, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Action
	for rows.Next() {
		a := &Action{}
		if err := rows.ScanStruct(a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
