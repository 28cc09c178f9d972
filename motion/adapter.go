package motion

// An Adapter represents the minimal motion-controller interface the
// probing engine needs. Implementations execute moves asynchronously;
// every method is called from the single control goroutine.
type Adapter interface {
	// IssueMove enqueues an absolute move. It returns once the move is
	// confirmed queued, not once it completes.
	IssueMove(target Position, feed float64) error

	// Pending reports whether moves are queued or still draining.
	Pending() bool

	// AxisPosition returns the commanded planner position of one axis.
	// During a move this is the best estimate available before the
	// motion settles.
	AxisPosition(a Axis) float64

	// QuickStop aborts in-flight motion immediately, without a
	// controlled deceleration.
	QuickStop() error

	// Synchronize blocks until the motion queue is fully drained.
	Synchronize() error

	// ResyncAxis re-derives the tracked logical position of one axis
	// from physical feedback. Required after a quick stop, before the
	// axis position may be trusted again.
	ResyncAxis(a Axis) (float64, error)

	// Triggered polls the probe contact sensor. Non-blocking.
	Triggered() bool

	// Idle yields a slice to other scheduled duties between polls.
	Idle()
}
