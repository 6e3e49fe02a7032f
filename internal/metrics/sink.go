package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or propagate
// errors. If the metrics backend is unavailable, implementations log and continue.
type Sink interface {
	// Planner metrics
	PlanCompleted(duration time.Duration, stops int, dropped int, err error)

	// Lifecycle metrics
	LifecycleEvent(kind string, outcome string)

	// Notification metrics
	NotificationSent(ok bool)
}

// Outcome constants for LifecycleEvent.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
