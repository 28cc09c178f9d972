// Package probe implements the probe-centering engine: a trigger-seeking
// vertical probe, an adaptive bisection edge search, and the four-point
// centering sequence used to locate circular PCB features.
package probe

import (
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/schutzwerk/PROBoter/motion"
)

var (
	// ErrNoInitialContact is returned by CenterFeature when the seed
	// probe never touches the feature. No calibration points are
	// produced in that case.
	ErrNoInitialContact = errors.New("probe: initial probe did not make contact")

	// ErrBusy is returned when a probing operation is started while
	// another one is still in flight.
	ErrBusy = errors.New("probe: probing operation already in flight")
)

// RetractMode selects how the probe retracts after a vertical probe.
type RetractMode int

const (
	// RetractAbsolute retracts to an absolute Z coordinate.
	RetractAbsolute RetractMode = iota
	// RetractRelative retracts by subtracting the retract value from
	// the trigger height (or from the commanded target if the probe
	// never triggered).
	RetractRelative
)

func (m RetractMode) String() string {
	if m == RetractAbsolute {
		return "absolute"
	}
	return "relative"
}

// Config holds the probing parameters. Z grows toward the target
// surface, so retracting means decreasing Z.
type Config struct {
	// ProbeFeed is the feed rate for probing moves, in mm/min.
	ProbeFeed float64
	// TravelFeed is the feed rate for lateral repositioning moves.
	TravelFeed float64
	// ZTravelMax is the full-range Z target for the seed probe.
	ZTravelMax float64
	// Clearance is the retract distance between probe samples.
	Clearance float64
	// InitialStep is the lateral step magnitude an edge search
	// starts with.
	InitialStep float64
	// MinStep is the step magnitude below which an edge search is
	// considered converged.
	MinStep float64
}

// DefaultConfig returns the parameters used by the stock hardware.
func DefaultConfig() Config {
	return Config{
		ProbeFeed:   120,
		TravelFeed:  600,
		ZTravelMax:  80,
		Clearance:   1,
		InitialStep: 1,
		MinStep:     0.01,
	}
}

// Engine drives all probing operations against a motion adapter.
//
// The engine owns the commanded-position state and runs on a single
// control goroutine: exactly one probing operation is in flight at a
// time, and no position math happens until the relevant motion has
// been confirmed complete or aborted.
type Engine struct {
	cfg Config
	ad  motion.Adapter
	pos *motion.PositionState

	// lastZ is the Z height at which the probe last triggered. It is
	// written by Vertical and read by LocateEdge when recording
	// samples.
	lastZ float64

	busy atomic.Bool

	log    zerolog.Logger
	events chan Event
}

// New creates an engine bound to the given adapter. The initial
// commanded position is taken from the adapter.
func New(cfg Config, ad motion.Adapter, log zerolog.Logger) *Engine {
	pos := motion.Position{}
	pos.X = ad.AxisPosition(motion.AxisX)
	pos.Y = ad.AxisPosition(motion.AxisY)
	pos.Z = ad.AxisPosition(motion.AxisZ)
	pos.E = ad.AxisPosition(motion.AxisE)

	return &Engine{
		cfg:    cfg,
		ad:     ad,
		pos:    motion.NewPositionState(pos),
		log:    log,
		events: make(chan Event, 64),
	}
}

// Position returns the current commanded position.
func (e *Engine) Position() motion.Position { return e.pos.Get() }

// LastMeasuredZ returns the Z height of the most recent trigger.
func (e *Engine) LastMeasuredZ() float64 { return e.lastZ }

// acquire claims the engine for one probing operation. Exactly one
// operation is in flight at a time; callers arriving while another
// operation holds the engine get ErrBusy instead of queueing.
func (e *Engine) acquire() error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (e *Engine) release() { e.busy.Store(false) }
