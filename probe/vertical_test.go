package probe

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schutzwerk/PROBoter/coord"
	"github.com/schutzwerk/PROBoter/motion"
	"github.com/schutzwerk/PROBoter/sim"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ZTravelMax = 10
	return cfg
}

func newTestEngine(t *testing.T, mc sim.Config) (*Engine, *sim.Machine) {
	t.Helper()
	m := sim.New(mc)
	return New(testConfig(), m, zerolog.Nop()), m
}

func TestEngine_Vertical_Trigger(t *testing.T) {
	e, m := newTestEngine(t, sim.Config{
		Pad: sim.Pad{Center: coord.Point{Z: 3.2}, Radius: 5},
	})

	triggered, z, err := e.Vertical(10, RetractRelative, 1, 120)
	require.NoError(t, err)
	assert.True(t, triggered)
	assert.InDelta(t, 3.2, z, 0.03)
	assert.Equal(t, z, e.LastMeasuredZ())

	// Retracted by the clearance, queue fully drained.
	assert.False(t, m.Pending())
	assert.InDelta(t, z-1, e.Position().Z, 1e-9)
	assert.InDelta(t, z-1, m.Actual().Z, 1e-9)

	// The wait loop yielded to other duties between polls.
	assert.NotZero(t, m.IdleCalls())
}

func TestEngine_Vertical_NoContact(t *testing.T) {
	e, m := newTestEngine(t, sim.Config{
		Pad:   sim.Pad{Center: coord.Point{Z: 3.2}, Radius: 5},
		Start: motion.Position{Point: coord.Point{X: 20}},
	})

	triggered, z, err := e.Vertical(10, RetractRelative, 1, 120)
	require.NoError(t, err)
	assert.False(t, triggered)
	// The move completed naturally; the last sampled position is the
	// commanded target.
	assert.Equal(t, 10.0, z)
	assert.Zero(t, e.LastMeasuredZ())
	assert.False(t, m.Pending())
}

func TestEngine_Vertical_RetractAbsolute(t *testing.T) {
	e, m := newTestEngine(t, sim.Config{
		Pad: sim.Pad{Center: coord.Point{Z: 3.2}, Radius: 5},
	})

	triggered, _, err := e.Vertical(10, RetractAbsolute, 1.5, 120)
	require.NoError(t, err)
	assert.True(t, triggered)
	assert.InDelta(t, 1.5, e.Position().Z, 1e-9)
	assert.InDelta(t, 1.5, m.Actual().Z, 1e-9)
}

func TestEngine_Vertical_ResyncAfterStop(t *testing.T) {
	e, m := newTestEngine(t, sim.Config{
		Pad:       sim.Pad{Center: coord.Point{Z: 3.2}, Radius: 5},
		Overshoot: 0.2,
	})

	triggered, z, err := e.Vertical(10, RetractRelative, 1, 120)
	require.NoError(t, err)
	assert.True(t, triggered)

	// The retract is computed from the trigger height, not from the
	// stale pre-stop estimate: commanded and physical Z agree again.
	assert.InDelta(t, z-1, m.Actual().Z, 1e-9)
	assert.Equal(t, e.Position().Z, m.Actual().Z)
}

func TestEngine_Vertical_MoveFault(t *testing.T) {
	e, m := newTestEngine(t, sim.Config{})
	m.MoveErr = errors.New("stall")

	_, _, err := e.Vertical(10, RetractRelative, 1, 120)
	assert.Error(t, err)
}
