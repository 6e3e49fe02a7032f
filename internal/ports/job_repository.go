package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
)

var (
	ErrJobNotFound = errors.New("job not found")

	// Returned by UpdateStatus when the job's current status no longer matches
	// the expected one; the caller re-reads and re-evaluates.
	ErrStatusConflict = errors.New("job status conflict")
)

// Optional fields written alongside a status transition.
// Nil fields are left untouched.
type StatusUpdate struct {
	CheckInAt      *time.Time
	CheckInCoords  *domain.Coordinates
	CheckOutAt     *time.Time
	CheckOutCoords *domain.Coordinates
}

// Port: a boundary for retrieving and updating Job records.
type JobRepository interface {
	// GetJob returns a single job, or ErrJobNotFound.
	GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// GetAssignedJobs returns all jobs assigned to a technician for a date.
	GetAssignedJobs(ctx context.Context, technicianID uuid.UUID, date string) ([]*domain.Job, error)

	// UpdateStatus transitions a job's status as a single conditional write:
	// the update applies only while the stored status equals expected.
	// Returns ErrStatusConflict if the condition no longer holds, so that two
	// concurrent identical transitions cannot both succeed.
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.JobStatus, fields StatusUpdate) error
}
