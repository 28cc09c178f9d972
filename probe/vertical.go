package probe

import (
	"fmt"

	"github.com/schutzwerk/PROBoter/motion"
)

// phase is the state of a vertical probe cycle.
type phase int

const (
	phaseMoving phase = iota
	phasePolling
	phaseTriggered
	phaseStopping
	phaseResyncing
	phaseRetracting
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseMoving:
		return "MOVING"
	case phasePolling:
		return "POLLING"
	case phaseTriggered:
		return "TRIGGERED"
	case phaseStopping:
		return "STOPPING"
	case phaseResyncing:
		return "RESYNCING"
	case phaseRetracting:
		return "RETRACTING"
	}
	return "DONE"
}

// Vertical drives the Z axis toward zTarget until the contact sensor
// triggers or the move completes, then halts, resynchronizes the Z
// position from physical feedback and retracts.
//
// While the motion queue reports outstanding work the sensor is polled
// without blocking the scheduler: the adapter's Idle is called between
// polls so other duties keep running. On contact the commanded Z is
// captured as the trigger height before the quick stop completes.
//
// When the sensor never triggers, triggerZ is the last sampled axis
// position.
//
// Vertical claims the engine for the duration of the cycle; it returns
// ErrBusy while another probing operation is in flight.
func (e *Engine) Vertical(zTarget float64, retract RetractMode, retractValue, feed float64) (bool, float64, error) {
	if err := e.acquire(); err != nil {
		return false, 0, err
	}
	defer e.release()
	return e.vertical(zTarget, retract, retractValue, feed)
}

// vertical is the probe cycle itself, without the single-operation
// guard. Composite operations that already hold the engine call this.
func (e *Engine) vertical(zTarget float64, retract RetractMode, retractValue, feed float64) (triggered bool, triggerZ float64, err error) {
	st := phaseMoving

	for st != phaseDone {
		e.emit(Event{Type: EventPhase, Phase: st.String()})

		switch st {
		case phaseMoving:
			e.pos.SetZ(zTarget)
			if err = e.ad.IssueMove(e.pos.Get(), feed); err != nil {
				return false, 0, fmt.Errorf("issue probe move: %w", err)
			}
			st = phasePolling

		case phasePolling:
			triggered = e.ad.Triggered()
			for e.ad.Pending() && !triggered {
				e.ad.Idle()
				triggered = e.ad.Triggered()
			}
			if triggered {
				st = phaseTriggered
			} else {
				// Natural completion without contact.
				triggerZ = e.ad.AxisPosition(motion.AxisZ)
				st = phaseStopping
			}

		case phaseTriggered:
			// Best estimate before the stop settles is the commanded
			// planner position.
			triggerZ = e.ad.AxisPosition(motion.AxisZ)
			e.lastZ = triggerZ
			st = phaseStopping

		case phaseStopping:
			if err = e.ad.QuickStop(); err != nil {
				return triggered, triggerZ, fmt.Errorf("quick stop: %w", err)
			}
			if err = e.ad.Synchronize(); err != nil {
				return triggered, triggerZ, fmt.Errorf("synchronize after stop: %w", err)
			}
			st = phaseResyncing

		case phaseResyncing:
			// A quick stop leaves the logical and physical positions
			// inconsistent. No coordinate math until this completes.
			z, rerr := e.ad.ResyncAxis(motion.AxisZ)
			if rerr != nil {
				return triggered, triggerZ, fmt.Errorf("resync Z: %w", rerr)
			}
			e.pos.SetZ(z)
			st = phaseRetracting

		case phaseRetracting:
			target := retractValue
			if retract == RetractRelative {
				target = triggerZ - retractValue
			}
			e.pos.SetZ(target)
			if err = e.ad.IssueMove(e.pos.Get(), feed); err != nil {
				return triggered, triggerZ, fmt.Errorf("issue retract move: %w", err)
			}
			if err = e.ad.Synchronize(); err != nil {
				return triggered, triggerZ, fmt.Errorf("synchronize retract: %w", err)
			}
			st = phaseDone
		}
	}

	e.emit(Event{Type: EventPhase, Phase: st.String()})
	e.log.Debug().
		Bool("triggered", triggered).
		Float64("trigger_z", triggerZ).
		Msg("vertical probe done")

	return triggered, triggerZ, nil
}
