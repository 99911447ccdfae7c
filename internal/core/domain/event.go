package domain

// EventKind names a step in the lifecycle of a resolution.
type EventKind string

const (
	// EventRoundStarted is emitted before the frontier of a round is fetched.
	EventRoundStarted EventKind = "round_started"
	// EventComponentResolved is emitted when a component was stored in the file set.
	EventComponentResolved EventKind = "component_resolved"
	// EventComponentSkipped is emitted when a component contributed nothing.
	EventComponentSkipped EventKind = "component_skipped"
	// EventResolutionFinished is emitted once the frontier is empty.
	EventResolutionFinished EventKind = "resolution_finished"
)

// Event is a progress notification from a resolution.
type Event struct {
	Kind      EventKind `json:"kind"`
	Round     int       `json:"round"`
	Component string    `json:"component,omitempty"`
	Path      string    `json:"path,omitempty"`
	Frontier  []string  `json:"frontier,omitempty"`
	Warning   *Warning  `json:"warning,omitempty"`
}

// EventSink receives resolution events. Calls are made from a single goroutine.
type EventSink func(Event)
