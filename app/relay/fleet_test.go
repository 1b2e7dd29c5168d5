package relay

import (
	"testing"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/stretchr/testify/assert"
	"github.com/suretyx/suretyx/pkg/surety"
	"go.uber.org/zap/zaptest"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	return &App{
		Fleet:  xsync.NewMap[string, *Oracle](),
		Logger: zaptest.NewLogger(t),
	}
}

func TestOraclesHolding(t *testing.T) {
	a := newTestApp(t)
	a.Fleet.Store("oracle-00", &Oracle{ID: "oracle-00", Indices: []uint8{1, 4, 7}})
	a.Fleet.Store("oracle-01", &Oracle{ID: "oracle-01", Indices: []uint8{2, 4, 9}})
	a.Fleet.Store("oracle-02", &Oracle{ID: "oracle-02", Indices: []uint8{0, 3, 5}})

	ids := func(oracles []*Oracle) []string {
		out := make([]string, 0, len(oracles))
		for _, o := range oracles {
			out = append(out, o.ID)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"oracle-00", "oracle-01"}, ids(a.oraclesHolding(4)))
	assert.ElementsMatch(t, []string{"oracle-02"}, ids(a.oraclesHolding(0)))
	assert.Empty(t, a.oraclesHolding(8))
}

func TestPickStatus(t *testing.T) {
	a := newTestApp(t)

	// A pinned code always wins.
	a.fixedStatus = uint32(surety.StatusLateAirline)
	for i := 0; i < 10; i++ {
		assert.Equal(t, surety.StatusLateAirline, a.pickStatus())
	}

	// Random picks stay within the defined codes.
	a.fixedStatus = 0
	for i := 0; i < 50; i++ {
		code := a.pickStatus()
		assert.True(t, code.Valid())
		assert.NotEqual(t, surety.StatusUnknown, code)
	}
}
