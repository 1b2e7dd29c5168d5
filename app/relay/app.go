// Package relay runs a fleet of simulated oracles against a surety node:
// it registers them, listens for status-request fan-outs on Redis and
// submits responses on behalf of the oracles holding the requested index.
package relay

import (
	"context"

	"github.com/alitto/pond/v2"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/robfig/cron/v3"
	"github.com/suretyx/suretyx/pkg/logging"
	"github.com/suretyx/suretyx/pkg/redis"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/utils"
	"go.uber.org/zap"
)

// Oracle is one managed oracle: its participant identity, bearer token and
// the index labels the node assigned to it.
type Oracle struct {
	ID      string
	Token   string
	Indices []uint8
}

type App struct {
	// Client talks to the node API.
	Client *rpc.Client
	// RedisClient receives the node's status-request fan-out.
	RedisClient *redis.Client
	// Fleet maps oracle id to its registered state.
	Fleet *xsync.Map[string, *Oracle]
	// Pool bounds concurrent response submissions.
	Pool pond.Pool
	// Cron drives the departure sweeper.
	Cron *cron.Cron
	// Zap Logger
	Logger *zap.Logger

	// fixedStatus, when non-zero, pins every response to one status code
	// (useful for demos); otherwise each request gets a random code.
	fixedStatus uint32
	// sweepToken authenticates the sweeper's own node calls.
	sweepToken string
}

// Initialize initializes the application.
func Initialize(ctx context.Context) *App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	redisClient, err := redis.NewClient(ctx, logger)
	if err != nil {
		logger.Fatal("Unable to initialize Redis client - the relay cannot observe status requests", zap.Error(err))
	}

	app := &App{
		Client:      rpc.NewFromEnv(),
		RedisClient: redisClient,
		Fleet:       xsync.NewMap[string, *Oracle](),
		Pool:        pond.NewPool(utils.EnvInt("RELAY_WORKERS", 8)),
		Cron:        cron.New(),
		Logger:      logger,
		fixedStatus: uint32(utils.EnvUint64("RELAY_STATUS_CODE", 0)),
	}

	return app
}

// Start optionally seeds the demo network, registers the fleet, wires the
// sweeper and consumes status requests until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	if utils.EnvBool("RELAY_BOOTSTRAP", false) {
		if err := a.BootstrapNetwork(ctx); err != nil {
			a.Logger.Fatal("Unable to bootstrap demo network", zap.Error(err))
		}
	}

	if err := a.RegisterFleet(ctx); err != nil {
		a.Logger.Fatal("Unable to register oracle fleet", zap.Error(err))
	}

	sweepEvery := utils.Env("RELAY_SWEEP_SCHEDULE", "@every 1m")
	if _, err := a.Cron.AddFunc(sweepEvery, func() { a.SweepDepartedFlights(ctx) }); err != nil {
		a.Logger.Fatal("Unable to schedule departure sweeper", zap.Error(err))
	}
	a.Cron.Start()

	a.consumeRequests(ctx)

	cronCtx := a.Cron.Stop()
	<-cronCtx.Done()
	a.Pool.StopAndWait()
	if err := a.RedisClient.Close(); err != nil {
		a.Logger.Error("Failed to close redis client", zap.Error(err))
	}
	a.Logger.Info("さようなら!")
}
