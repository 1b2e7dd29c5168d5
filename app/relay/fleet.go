package relay

import (
	"context"
	"fmt"

	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/utils"
	"go.uber.org/zap"
)

// RegisterFleet mints an identity per managed oracle and registers each
// with the node. Already-registered oracles are recognized by a successful
// indices lookup, mirroring how an operator restarts a relay without
// re-paying fees.
func (a *App) RegisterFleet(ctx context.Context) error {
	count := utils.EnvInt("RELAY_ORACLE_COUNT", 20)
	prefix := utils.Env("RELAY_ORACLE_PREFIX", "oracle")

	fee, err := a.Client.RegistrationFee(ctx)
	if err != nil {
		return fmt.Errorf("fetch registration fee: %w", err)
	}

	sweeper, err := a.Client.MintToken(ctx, prefix+"-sweeper")
	if err != nil {
		return fmt.Errorf("mint sweeper token: %w", err)
	}
	a.sweepToken = sweeper

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("%s-%02d", prefix, i)

		token, err := a.Client.MintToken(ctx, id)
		if err != nil {
			return fmt.Errorf("mint token for %s: %w", id, err)
		}

		action := "Found"
		indices, err := a.Client.OracleIndices(ctx, token)
		if rpc.IsNotFound(err) {
			indices, err = a.Client.RegisterOracle(ctx, token, fee)
			action = "Registered"
		}
		if err != nil {
			return fmt.Errorf("register oracle %s: %w", id, err)
		}

		a.Fleet.Store(id, &Oracle{ID: id, Token: token, Indices: indices})
		a.Logger.Info(action+" oracle",
			zap.String("oracle", id),
			zap.Uint8s("indices", indices))
	}

	a.Logger.Info("Oracle fleet ready", zap.Int("size", a.Fleet.Size()))
	return nil
}

// oraclesHolding returns the managed oracles assigned the given index.
func (a *App) oraclesHolding(index uint8) []*Oracle {
	var out []*Oracle
	a.Fleet.Range(func(_ string, o *Oracle) bool {
		for _, idx := range o.Indices {
			if idx == index {
				out = append(out, o)
				break
			}
		}
		return true
	})
	return out
}
