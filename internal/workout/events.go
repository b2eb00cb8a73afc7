package workout

// EventType names a generation progress event. A successful generation
// emits status events interleaved with plan, confidence and complete, in
// that order.
type EventType string

const (
	EventStatus     EventType = "status"
	EventPlan       EventType = "plan"
	EventConfidence EventType = "confidence"
	EventComplete   EventType = "complete"
	EventError      EventType = "error"
)

type Event struct {
	Type    EventType   `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ProgressFunc receives events synchronously from Generate.
type ProgressFunc func(Event)

func (f ProgressFunc) orNop() ProgressFunc {
	if f == nil {
		return func(Event) {}
	}
	return f
}
