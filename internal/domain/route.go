package domain

import (
	"time"

	"github.com/google/uuid"
)

// Represents a single stop in a technician's daily route.
// A Stop corresponds to arriving at one job's property at a computed time,
// shooting for the estimated service duration, and departing.
type Stop struct {
	JobID  uuid.UUID
	Seq    int // 1-based, contiguous within a plan
	Coords Coordinates

	ArriveAt       time.Time
	DepartAt       time.Time
	ServiceMinutes int
}

// Represents the planned route for a single technician on a single date.
// A RoutePlan is the output of the routing algorithm and describes the ordered
// sequence of stops, along with aggregate distance and duration metrics.
// It is immutable planning data and contains no side effects; re-planning
// replaces the whole plan for the (technician, date) key.
type RoutePlan struct {
	TechnicianID uuid.UUID
	Date         string

	Start   Coordinates
	StartAt time.Time
	EndAt   time.Time

	Stops                []Stop
	TotalDurationSeconds int
	TotalDistanceMeters  int
}
