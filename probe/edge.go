package probe

import (
	"fmt"
	"math"

	"github.com/schutzwerk/PROBoter/coord"
)

// edgeOvershoot is how far past the seed trigger height each sample
// probe is allowed to travel. Samples just off the feature stop at the
// surrounding surface instead of diving.
const edgeOvershoot = 0.75

// edgeBudget is the sample budget per step scale. The budget restarts
// whenever an edge transition halves the step.
const edgeBudget = 20

// Sample is one probe measurement taken during an edge search: the
// lateral coordinate at sample time and the Z height at which the
// vertical probe last triggered.
type Sample struct {
	coord.Point

	// Triggered records whether this sample made contact.
	Triggered bool

	// Converged is set on the final sample of a search that reached
	// the minimum step threshold.
	Converged bool
}

// LocateEdge performs an adaptive bisection search along dir for the
// lateral coordinate where the vertical probe's trigger state flips.
//
// The step multiplier starts at 1.0 against dir. After every detected
// transition the step reverses sign and halves, and the iteration
// budget restarts at the new scale, so each crossing strictly refines
// the bracket and total travel is bounded by a geometric series. The
// search ends when the step magnitude drops below minStep (converged)
// or the budget at the current scale runs out.
//
// The last sample is returned either way; the bool reports whether the
// search converged.
//
// LocateEdge claims the engine for the duration of the search; it
// returns ErrBusy while another probing operation is in flight.
func (e *Engine) LocateEdge(seedZ, minStep, retractValue float64, dir coord.Vec2) (Sample, bool, error) {
	if err := e.acquire(); err != nil {
		return Sample{}, false, err
	}
	defer e.release()
	return e.locateEdge(seedZ, minStep, retractValue, dir)
}

func (e *Engine) locateEdge(seedZ, minStep, retractValue float64, dir coord.Vec2) (Sample, bool, error) {
	f := 1.0
	lastTriggered := true
	iter := 0

	var s Sample
	for iter < edgeBudget && math.Abs(f) >= minStep {
		step := dir.Scale(f)
		p := e.pos.Get()
		e.pos.SetXY(p.X+step.DX, p.Y+step.DY)
		if err := e.ad.IssueMove(e.pos.Get(), e.cfg.TravelFeed); err != nil {
			return s, false, fmt.Errorf("issue lateral move: %w", err)
		}

		triggered, _, err := e.vertical(seedZ+edgeOvershoot, RetractRelative, retractValue, e.cfg.ProbeFeed)
		if err != nil {
			return s, false, err
		}

		cur := e.pos.Get()
		s = Sample{
			Point:     coord.Point{X: cur.X, Y: cur.Y, Z: e.lastZ},
			Triggered: triggered,
		}
		e.emit(Event{Type: EventSample, Sample: &s})

		if triggered != lastTriggered {
			// Edge transition: the boundary lies between this sample
			// and the previous one. Search back at half scale.
			f = -0.5 * f
			iter = 0
		} else {
			iter++
		}
		lastTriggered = triggered
	}

	converged := iter < edgeBudget
	s.Converged = converged
	e.log.Debug().
		Float64("x", s.X).
		Float64("y", s.Y).
		Float64("z", s.Z).
		Bool("converged", converged).
		Msg("edge search finished")

	return s, converged, nil
}
