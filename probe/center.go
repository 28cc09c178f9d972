package probe

import (
	"github.com/schutzwerk/PROBoter/coord"
)

// sampleCount is the number of edge searches in a centering run. The
// first two seed the X-midpoint refinement; only the last four are
// reported as calibration points.
const sampleCount = 6

// SampleSet is the ordered sequence of edge-search samples produced by
// one centering run.
type SampleSet [sampleCount]Sample

// Seeds returns the two discardable seed measurements.
func (s SampleSet) Seeds() [2]Sample {
	return [2]Sample{s[0], s[1]}
}

// CalibrationPoints returns the four reported boundary samples, in
// +Y, -Y, +X, -X order.
func (s SampleSet) CalibrationPoints() [4]Sample {
	return [4]Sample{s[2], s[3], s[4], s[5]}
}

// Result is the outcome of a centering run.
type Result struct {
	// Samples holds all six edge-search samples.
	Samples SampleSet `json:"samples"`

	// Center is the fitted feature center. Z is the trigger height of
	// the seed probe.
	Center coord.Point `json:"center"`

	// Radius is the mean lateral distance of the calibration points
	// from the fitted center.
	Radius float64 `json:"radius"`
}

// CenterFeature locates the true center of a circular feature near the
// current position.
//
// A seed probe establishes the feature height; if it never triggers
// the whole operation aborts with ErrNoInitialContact and no
// calibration points are produced. Six edge searches then walk the
// boundary in +X, -X, +Y, -Y, +X, -X order from a search origin that
// is refined twice: its X becomes the midpoint of the first +-X pair,
// its Y the midpoint of the +-Y pair. The refinement compensates for
// the initial center estimate being offset from the true center.
//
// Any motion fault is fatal to the whole sequence; there is no
// partial-result recovery.
func (e *Engine) CenterFeature() (*Result, error) {
	if err := e.acquire(); err != nil {
		return nil, err
	}
	defer e.release()

	e.lastZ = 0
	triggered, _, err := e.vertical(e.cfg.ZTravelMax, RetractRelative, e.cfg.Clearance, e.cfg.ProbeFeed)
	if err != nil {
		return nil, err
	}
	if !triggered {
		return nil, ErrNoInitialContact
	}
	z0 := e.lastZ

	// The search origin starts where the seed probe retracted to and
	// is refined as boundary pairs complete.
	origin := e.pos.Get()

	s := e.cfg.InitialStep
	dirs := [sampleCount]coord.Vec2{
		{DX: s},
		{DX: -s},
		{DY: s},
		{DY: -s},
		{DX: s},
		{DX: -s},
	}

	var res Result
	for i, dir := range dirs {
		e.pos.Set(origin)
		if err = e.ad.IssueMove(origin, e.cfg.TravelFeed); err != nil {
			return nil, err
		}

		sample, converged, err := e.locateEdge(z0, e.cfg.MinStep, e.cfg.Clearance, dir)
		if err != nil {
			return nil, err
		}
		if !converged {
			e.log.Warn().
				Int("run", i).
				Float64("x", sample.X).
				Float64("y", sample.Y).
				Msg("edge search did not converge, using last sample")
		}
		res.Samples[i] = sample

		switch i {
		case 1:
			origin.X = (res.Samples[0].X + res.Samples[1].X) / 2
		case 3:
			origin.Y = (res.Samples[2].Y + res.Samples[3].Y) / 2
		}
	}

	res.Center = coord.Point{
		X: (res.Samples[4].X + res.Samples[5].X) / 2,
		Y: (res.Samples[2].Y + res.Samples[3].Y) / 2,
		Z: z0,
	}
	cal := res.Samples.CalibrationPoints()
	for _, p := range cal {
		res.Radius += res.Center.DistanceXY(p.X, p.Y)
	}
	res.Radius /= float64(len(cal))

	e.emit(Event{Type: EventResult, Result: &res})
	e.log.Info().
		Float64("center_x", res.Center.X).
		Float64("center_y", res.Center.Y).
		Float64("radius", res.Radius).
		Msg("centering complete")

	return &res, nil
}
