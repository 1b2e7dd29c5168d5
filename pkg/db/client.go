package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/suretyx/suretyx/pkg/retry"
	"github.com/suretyx/suretyx/pkg/utils"
	"go.uber.org/zap"
)

// HistoryDB is the append-only audit trail of the platform: every committed
// or rejected action, every status request and every payout. The committed
// state of record lives in the core; these tables exist for reporting and
// audit queries, so inserts are best-effort from the caller's perspective.
type HistoryDB struct {
	Logger *zap.Logger
	Db     driver.Conn
	Name   string
}

// New connects to ClickHouse and ensures the history database and tables
// exist. Configuration:
//   - CLICKHOUSE_ADDR: DSN (default "clickhouse://localhost:9000?sslmode=disable")
//   - CLICKHOUSE_DB: database name (default "surety")
//   - CLICKHOUSE_MAX_OPEN_CONNS / CLICKHOUSE_MAX_IDLE_CONNS: pool sizing
func New(ctx context.Context, logger *zap.Logger) (*HistoryDB, error) {
	dsn := utils.Env("CLICKHOUSE_ADDR", "clickhouse://localhost:9000?sslmode=disable")
	name := utils.Env("CLICKHOUSE_DB", "surety")

	options, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	options.MaxOpenConns = utils.EnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10)
	options.MaxIdleConns = utils.EnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5)
	options.ConnMaxLifetime = utils.EnvDuration("CLICKHOUSE_CONN_MAX_LIFETIME", time.Hour)
	options.DialTimeout = 10 * time.Second
	options.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// ClickHouse may still be warming up when the node starts.
	pingErr := retry.WithBackoff(ctx, retry.Config{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      15 * time.Second,
		Multiplier:    2.0,
		JitterEnabled: true,
	}, logger, "clickhouse ping", func() error {
		return conn.Ping(ctx)
	})
	if pingErr != nil {
		return nil, pingErr
	}

	h := &HistoryDB{Logger: logger, Db: conn, Name: name}
	if err := h.initialize(ctx); err != nil {
		return nil, err
	}

	logger.Info("Connected to ClickHouse", zap.String("database", name))
	return h, nil
}

// Close closes the underlying connection.
func (h *HistoryDB) Close() error {
	return h.Db.Close()
}

// Health checks connectivity.
func (h *HistoryDB) Health(ctx context.Context) error {
	return h.Db.Ping(ctx)
}

func (h *HistoryDB) initialize(ctx context.Context) error {
	if err := h.Db.Exec(ctx, fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS "%s"`, h.Name)); err != nil {
		return fmt.Errorf("create database %s: %w", h.Name, err)
	}
	for _, ddl := range []func(context.Context) error{h.initActions, h.initRequests, h.initPayouts} {
		if err := ddl(ctx); err != nil {
			return err
		}
	}
	return nil
}
