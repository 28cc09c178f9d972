// Package sim provides a deterministic in-process motion controller
// used by the probe tests and the demo mode. Motion advances only
// inside Idle and Synchronize, mirroring the cooperative scheduling
// model of the real controller.
package sim

import (
	"math"

	"github.com/schutzwerk/PROBoter/coord"
	"github.com/schutzwerk/PROBoter/motion"
)

// Pad is the simulated circular feature. The trigger sensor reports
// contact whenever the probe tip is laterally within Radius of the
// center and at or below the pad surface (Z grows toward the surface).
type Pad struct {
	Center coord.Point
	Radius float64
}

// Config configures a simulated machine.
type Config struct {
	Pad   Pad
	Start motion.Position

	// StepSize is how far the planner advances per Idle call.
	StepSize float64
	// Overshoot is the extra travel a quick stop leaves between the
	// physical and the commanded position.
	Overshoot float64
}

// Machine is a simulated motion controller.
type Machine struct {
	pad       Pad
	stepSize  float64
	overshoot float64

	queue  []motion.Position
	cur    motion.Position // planner (commanded) position
	actual motion.Position // physical position

	// MoveErr, when set, is returned by IssueMove. Used to exercise
	// motion-fault handling.
	MoveErr error

	idleCalls int
}

var _ motion.Adapter = &Machine{}

func New(cfg Config) *Machine {
	if cfg.StepSize == 0 {
		cfg.StepSize = 0.02
	}
	if cfg.Overshoot == 0 {
		cfg.Overshoot = 0.05
	}
	return &Machine{
		pad:       cfg.Pad,
		stepSize:  cfg.StepSize,
		overshoot: cfg.Overshoot,
		cur:       cfg.Start,
		actual:    cfg.Start,
	}
}

// IdleCalls reports how often the control loop yielded.
func (m *Machine) IdleCalls() int { return m.idleCalls }

// Actual returns the physical position.
func (m *Machine) Actual() motion.Position { return m.actual }

func (m *Machine) IssueMove(target motion.Position, feed float64) error {
	if m.MoveErr != nil {
		return m.MoveErr
	}
	m.queue = append(m.queue, target)
	return nil
}

func (m *Machine) Pending() bool { return len(m.queue) > 0 }

func (m *Machine) AxisPosition(a motion.Axis) float64 {
	switch a {
	case motion.AxisX:
		return m.cur.X
	case motion.AxisY:
		return m.cur.Y
	case motion.AxisZ:
		return m.cur.Z
	}
	return m.cur.E
}

func (m *Machine) QuickStop() error {
	if len(m.queue) == 0 {
		return nil
	}
	// The abrupt halt leaves the steppers past the commanded planner
	// position, along the direction of travel.
	dx, dy, dz := m.direction(m.queue[0])
	m.actual = m.cur
	m.actual.X += dx * m.overshoot
	m.actual.Y += dy * m.overshoot
	m.actual.Z += dz * m.overshoot
	m.queue = nil
	return nil
}

func (m *Machine) Synchronize() error {
	for len(m.queue) > 0 {
		m.advance()
	}
	return nil
}

func (m *Machine) ResyncAxis(a motion.Axis) (float64, error) {
	var v float64
	switch a {
	case motion.AxisX:
		v = m.actual.X
		m.cur.X = v
	case motion.AxisY:
		v = m.actual.Y
		m.cur.Y = v
	case motion.AxisZ:
		v = m.actual.Z
		m.cur.Z = v
	default:
		v = m.actual.E
		m.cur.E = v
	}
	return v, nil
}

func (m *Machine) Triggered() bool {
	if m.pad.Center.DistanceXY(m.actual.X, m.actual.Y) > m.pad.Radius {
		return false
	}
	return m.actual.Z >= m.pad.Center.Z
}

func (m *Machine) Idle() {
	m.idleCalls++
	m.advance()
}

// direction returns the unit direction from cur to target.
func (m *Machine) direction(target motion.Position) (dx, dy, dz float64) {
	dx = target.X - m.cur.X
	dy = target.Y - m.cur.Y
	dz = target.Z - m.cur.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist == 0 {
		return 0, 0, 0
	}
	return dx / dist, dy / dist, dz / dist
}

// advance moves the planner position one step toward the head of the
// queue. The physical position tracks exactly during normal motion.
func (m *Machine) advance() {
	if len(m.queue) == 0 {
		return
	}
	target := m.queue[0]
	dx := target.X - m.cur.X
	dy := target.Y - m.cur.Y
	dz := target.Z - m.cur.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist <= m.stepSize {
		m.cur = target
		m.queue = m.queue[1:]
	} else {
		m.cur.X += dx / dist * m.stepSize
		m.cur.Y += dy / dist * m.stepSize
		m.cur.Z += dz / dist * m.stepSize
	}
	m.actual = m.cur
}
