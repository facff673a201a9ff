package simulator

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdm-registry-backend/config"
	"mdm-registry-backend/internal/blob"
	"mdm-registry-backend/internal/store"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestSimulator(t *testing.T, seed bool) (*Simulator, *store.Store) {
	t.Helper()
	reg := store.New(blob.NewMemoryStore(), store.WithSeed(seed), store.WithClock(func() time.Time { return testNow.Add(-time.Hour) }))
	sim := New(reg, config.SimulatorConfig{Interval: time.Hour}, nil)
	sim.rng = rand.New(rand.NewPCG(1, 2))
	sim.now = func() time.Time { return testNow }
	return sim, reg
}

func TestSimulator_Tick(t *testing.T) {
	ctx := context.Background()
	sim, reg := newTestSimulator(t, true)

	before, err := reg.ListDevices(ctx, store.DeviceFilter{})
	require.NoError(t, err)
	batteries := map[string]int{}
	for _, d := range before {
		batteries[d.ID] = d.Battery
	}

	for i := 0; i < 50; i++ {
		d, err := sim.Tick(ctx)
		require.NoError(t, err)
		require.NotNil(t, d)

		assert.Equal(t, testNow, d.LastSeen)
		assert.GreaterOrEqual(t, d.Battery, 0)
		assert.LessOrEqual(t, d.Battery, 100)
		assert.LessOrEqual(t, abs(d.Battery-batteries[d.ID]), maxBatteryDelta)
		batteries[d.ID] = d.Battery
	}

	after, err := reg.ListDevices(ctx, store.DeviceFilter{})
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	for _, d := range after {
		assert.Equal(t, batteries[d.ID], d.Battery)
	}
}

func TestSimulator_TickEmptyRegistry(t *testing.T) {
	sim, _ := newTestSimulator(t, false)

	d, err := sim.Tick(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestSimulator_StartStopsWithContext(t *testing.T) {
	sim, _ := newTestSimulator(t, true)
	sim.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	sim.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()
}

func TestClamp(t *testing.T) {
	testCases := []struct{ in, expected int }{
		{-3, 0}, {0, 0}, {57, 57}, {100, 100}, {104, 100},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, clamp(tc.in, 0, 100))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var _ Registry = (*store.Store)(nil)
