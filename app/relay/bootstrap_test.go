package relay

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suretyx/suretyx/app/node/controller"
	"github.com/suretyx/suretyx/app/node/types"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
	"go.uber.org/zap/zaptest"
)

// startTestNode spins up the node API over httptest and returns its core
// for direct state assertions.
func startTestNode(t *testing.T) (*surety.Service, *httptest.Server) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	core := surety.New(logger, surety.DefaultParams(), "owner", "airline-1")

	app := &types.App{
		Core:      core,
		Hub:       types.NewHub(logger),
		JWTSecret: []byte("test-secret"),
		OwnerID:   "owner",
		Logger:    logger,
	}
	router, err := controller.NewController(app).NewRouter()
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return core, server
}

func TestBootstrapNetwork(t *testing.T) {
	core, server := startTestNode(t)
	a := &App{
		Client: rpc.NewWithOpts(rpc.Opts{Base: server.URL}),
		Fleet:  xsync.NewMap[string, *Oracle](),
		Logger: zaptest.NewLogger(t),
	}

	ctx := context.Background()
	require.NoError(t, a.BootstrapNetwork(ctx))

	// Five funded airlines, including the one past the vote-free limit.
	threshold := surety.DefaultParams().FundingThreshold
	for i := 1; i <= 5; i++ {
		id := surety.ParticipantID(fmt.Sprintf("airline-%d", i))
		assert.True(t, core.IsAirline(id), "%s must be registered", id)
		assert.Equal(t, threshold, core.AirlineFunds(id))
	}

	// One flight per airline, registrable for insurance right away.
	flights := core.Flights()
	require.Len(t, flights, 5)
	for _, flight := range flights {
		assert.Equal(t, surety.StatusUnknown, flight.Status)
		require.NoError(t, core.BuyInsurance(flight.Key, "pax-1", 1_000))
	}

	// A relay restart re-runs the bootstrap without side effects.
	require.NoError(t, a.BootstrapNetwork(ctx))
	assert.Len(t, core.Flights(), 5)
	for i := 1; i <= 5; i++ {
		id := surety.ParticipantID(fmt.Sprintf("airline-%d", i))
		assert.Equal(t, threshold, core.AirlineFunds(id))
	}
}
