package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind of field signal reported by a technician's device.
type EventKind string

const (
	EventEnRoute  EventKind = "en_route"
	EventCheckIn  EventKind = "check_in"
	EventCheckOut EventKind = "check_out"
	EventCancel   EventKind = "cancel"
)

// Valid reports whether k is one of the known event kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventEnRoute, EventCheckIn, EventCheckOut, EventCancel:
		return true
	}
	return false
}

// LifecycleEvent is one field signal for one job. Events are validated against
// the job's current status and applied at most once; replays of an
// already-applied check-in or check-out are accepted as no-ops because field
// connectivity is unreliable and duplicate submissions are expected.
type LifecycleEvent struct {
	JobID        uuid.UUID
	TechnicianID uuid.UUID
	Kind         EventKind

	Coords     Coordinates
	ReportedAt time.Time

	// ETASeconds is only meaningful on en-route pings.
	ETASeconds *int
}
