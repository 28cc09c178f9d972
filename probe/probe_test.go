package probe

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schutzwerk/PROBoter/coord"
	"github.com/schutzwerk/PROBoter/sim"
)

// gateMachine keeps a probe in its polling phase until release is
// closed, so tests can hold an operation in flight deterministically.
type gateMachine struct {
	*sim.Machine

	startOnce sync.Once
	started   chan struct{}
	release   chan struct{}
}

func newGateMachine(mc sim.Config) *gateMachine {
	return &gateMachine{
		Machine: sim.New(mc),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gateMachine) Pending() bool {
	g.startOnce.Do(func() { close(g.started) })
	select {
	case <-g.release:
		return g.Machine.Pending()
	default:
		return true
	}
}

func (g *gateMachine) Idle() {
	select {
	case <-g.release:
		g.Machine.Idle()
	default:
		time.Sleep(time.Millisecond)
	}
}

func TestEngine_SingleOperation(t *testing.T) {
	g := newGateMachine(sim.Config{
		Pad: sim.Pad{Center: coord.Point{Z: 3.2}, Radius: 5},
	})
	e := New(testConfig(), g, zerolog.Nop())

	done := make(chan error, 1)
	go func() {
		_, _, err := e.Vertical(10, RetractRelative, 1, 120)
		done <- err
	}()

	select {
	case <-g.started:
	case <-time.After(time.Second):
		t.Fatal("first probe never started")
	}

	// Every other entry point is rejected while the probe is in
	// flight.
	_, _, err := e.Vertical(10, RetractRelative, 1, 120)
	assert.ErrorIs(t, err, ErrBusy)

	_, _, err = e.LocateEdge(3.2, 0.01, 1, coord.Vec2{DX: 1})
	assert.ErrorIs(t, err, ErrBusy)

	_, cerr := e.CenterFeature()
	assert.ErrorIs(t, cerr, ErrBusy)

	close(g.release)
	require.NoError(t, <-done)

	// The engine is claimable again once the operation finishes.
	_, _, err = e.Vertical(10, RetractRelative, 1, 120)
	require.NoError(t, err)
}
