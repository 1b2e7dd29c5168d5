package node

import (
	"context"

	"github.com/suretyx/suretyx/app/node/types"
	"github.com/suretyx/suretyx/pkg/db"
	"github.com/suretyx/suretyx/pkg/logging"
	"github.com/suretyx/suretyx/pkg/redis"
	"github.com/suretyx/suretyx/pkg/surety"
	"github.com/suretyx/suretyx/pkg/utils"
	"go.uber.org/zap"
)

// Initialize initializes the application.
func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	// History store is optional: the audit trail is a reporting concern.
	var history *db.HistoryDB
	if utils.EnvBool("CLICKHOUSE_ENABLED", false) {
		history, err = db.New(ctx, logger)
		if err != nil {
			logger.Fatal("Unable to initialize history database", zap.Error(err))
		}
	} else {
		logger.Info("ClickHouse disabled - action history will not be recorded")
	}

	// Redis fans events out to oracle relays. Optional: without it only
	// websocket clients see events.
	var redisClient *redis.Client
	if utils.EnvBool("REDIS_ENABLED", false) {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - relay fan-out will be disabled", zap.Error(err))
			redisClient = nil
		}
	} else {
		logger.Info("Redis disabled - relay fan-out will not be available")
	}

	hub := types.NewHub(logger)
	sink := &eventSink{logger: logger, redis: redisClient, history: history, hub: hub}

	owner := surety.ParticipantID(utils.Env("OWNER_ID", "owner"))
	firstAirline := surety.ParticipantID(utils.Env("FIRST_AIRLINE_ID", "airline-1"))

	params := surety.DefaultParams()
	params.FundingThreshold = utils.EnvUint64("FUNDING_THRESHOLD", params.FundingThreshold)
	params.PremiumCap = utils.EnvUint64("PREMIUM_CAP", params.PremiumCap)
	params.RegistrationFee = utils.EnvUint64("ORACLE_REGISTRATION_FEE", params.RegistrationFee)
	params.Quorum = utils.EnvInt("ORACLE_QUORUM", params.Quorum)

	core := surety.New(logger, params, owner, firstAirline,
		surety.WithEmitter(sink),
		surety.WithTreasury(&treasury{logger: logger, history: history}),
	)

	ownerHash, err := utils.HashOrRead(utils.Env("OWNER_PASSWORD", "surety"))
	if err != nil {
		logger.Fatal("Unable to hash owner password", zap.Error(err))
	}

	app := &types.App{
		Core:        core,
		History:     history,
		RedisClient: redisClient,
		Hub:         hub,
		JWTSecret:   []byte(utils.Env("JWT_SECRET", "dev-secret-change-me")),
		OwnerID:     owner,
		OwnerHash:   ownerHash,
		Logger:      logger,
	}

	return app
}
