package probe

// EventType identifies an engine event.
type EventType string

const (
	EventPhase  EventType = "phase"
	EventSample EventType = "sample"
	EventResult EventType = "result"
)

// Event is a progress notification emitted while a probing operation
// runs. Events are best effort: slow consumers miss updates instead of
// stalling the control loop.
type Event struct {
	Type   EventType `json:"type"`
	Phase  string    `json:"phase,omitempty"`
	Sample *Sample   `json:"sample,omitempty"`
	Result *Result   `json:"result,omitempty"`
}

// Events returns the engine's event stream.
func (e *Engine) Events() <-chan Event { return e.events }

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	default:
	}
}
