package types

import (
	"context"
	"net/http"
	"time"

	"github.com/suretyx/suretyx/pkg/db"
	"github.com/suretyx/suretyx/pkg/redis"
	"github.com/suretyx/suretyx/pkg/surety"
	"go.uber.org/zap"
)

type App struct {
	// Core is the committed state machine; every inbound action lands here.
	Core *surety.Service
	// History is the ClickHouse audit trail. Optional.
	History *db.HistoryDB
	// RedisClient fans events out to oracle relays. Optional.
	RedisClient *redis.Client
	// Hub streams events to connected websocket clients.
	Hub *Hub
	// JWTSecret signs participant bearer tokens and owner sessions.
	JWTSecret []byte
	// OwnerID is the participant allowed to flip the operational gate.
	OwnerID surety.ParticipantID
	// OwnerHash is the bcrypt hash guarding the owner session login.
	OwnerHash []byte
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start starts the application.
func (a *App) Start(ctx context.Context) {
	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.History != nil {
		if err := a.History.Close(); err != nil {
			a.Logger.Error("Failed to close history database", zap.Error(err))
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	_ = a.Server.Shutdown(shutdownCtx)
	time.Sleep(200 * time.Millisecond)
	a.Logger.Info("さようなら!")
}
