package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle status of a photo job. Transitions are owned exclusively by the
// lifecycle tracker; everything else treats the status as read-only.
type JobStatus string

const (
	StatusScheduled  JobStatus = "scheduled"
	StatusEnRoute    JobStatus = "en_route"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
	StatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusEnRoute, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Job is a scheduled photo shoot at a property address.
//
// Address, coordinates and square footage are planning inputs and are never
// mutated by the planner. Check-in/check-out fields are written once by the
// lifecycle tracker when the corresponding transition succeeds.
type Job struct {
	ID           uuid.UUID
	TechnicianID uuid.UUID

	// Date is the service day in YYYY-MM-DD form. Together with TechnicianID
	// it keys the daily route plan.
	Date        string
	ScheduledAt *time.Time

	Address       string
	Coords        *Coordinates
	SquareFootage *int

	Status JobStatus

	CheckInAt      *time.Time
	CheckInCoords  *Coordinates
	CheckOutAt     *time.Time
	CheckOutCoords *Coordinates

	CreatedAt time.Time
	UpdatedAt time.Time
}
