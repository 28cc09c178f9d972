package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schutzwerk/PROBoter/coord"
	"github.com/schutzwerk/PROBoter/motion"
)

func TestMachine_MoveCompletes(t *testing.T) {
	m := New(Config{})

	target := motion.Position{Point: coord.Point{X: 1, Y: 2, Z: 3}}
	assert.NoError(t, m.IssueMove(target, 600))
	assert.True(t, m.Pending())

	assert.NoError(t, m.Synchronize())
	assert.False(t, m.Pending())
	assert.Equal(t, target, m.Actual())
	assert.Equal(t, 1.0, m.AxisPosition(motion.AxisX))
	assert.Equal(t, 3.0, m.AxisPosition(motion.AxisZ))
}

func TestMachine_QuickStopLeavesDiscrepancy(t *testing.T) {
	m := New(Config{StepSize: 0.1, Overshoot: 0.05})

	assert.NoError(t, m.IssueMove(motion.Position{Point: coord.Point{Z: 10}}, 120))
	for i := 0; i < 20; i++ {
		m.Idle()
	}
	commanded := m.AxisPosition(motion.AxisZ)

	assert.NoError(t, m.QuickStop())
	assert.False(t, m.Pending())

	// Physical position overshoots the commanded one until resync.
	assert.Equal(t, commanded+0.05, m.Actual().Z)

	z, err := m.ResyncAxis(motion.AxisZ)
	assert.NoError(t, err)
	assert.Equal(t, m.Actual().Z, z)
	assert.Equal(t, z, m.AxisPosition(motion.AxisZ))
}

func TestMachine_Trigger(t *testing.T) {
	m := New(Config{
		Pad:      Pad{Center: coord.Point{Z: 3.2}, Radius: 5},
		StepSize: 0.1,
	})

	assert.False(t, m.Triggered())

	assert.NoError(t, m.IssueMove(motion.Position{Point: coord.Point{Z: 10}}, 120))
	for !m.Triggered() && m.Pending() {
		m.Idle()
	}
	assert.True(t, m.Triggered())
	assert.InDelta(t, 3.2, m.AxisPosition(motion.AxisZ), 0.11)

	// Outside the pad radius the sensor never reports contact.
	m2 := New(Config{
		Pad:      Pad{Center: coord.Point{Z: 3.2}, Radius: 5},
		StepSize: 0.1,
		Start:    motion.Position{Point: coord.Point{X: 8}},
	})
	assert.NoError(t, m2.IssueMove(motion.Position{Point: coord.Point{X: 8, Z: 10}}, 120))
	assert.NoError(t, m2.Synchronize())
	assert.False(t, m2.Triggered())
}
