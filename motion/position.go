package motion

import (
	"github.com/schutzwerk/PROBoter/coord"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	AxisE
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisE:
		return "E"
	}
	return "?"
}

// Position is a full commanded machine position. E is carried through
// move commands but never driven by probe logic.
type Position struct {
	coord.Point
	E float64
}

// PositionState tracks the commanded machine position. It is owned by
// the probing engine: only the engine's own move calls and the
// feedback-resync step write it. All access happens on the single
// control goroutine, so there is no locking; correctness relies on
// strict call sequencing instead.
type PositionState struct {
	cur Position
}

func NewPositionState(p Position) *PositionState {
	return &PositionState{cur: p}
}

func (s *PositionState) Get() Position { return s.cur }

func (s *PositionState) Set(p Position) { s.cur = p }

func (s *PositionState) SetXY(x, y float64) {
	s.cur.X = x
	s.cur.Y = y
}

func (s *PositionState) SetZ(z float64) { s.cur.Z = z }
