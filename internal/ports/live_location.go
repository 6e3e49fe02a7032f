package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
)

var ErrNoLiveLocation = errors.New("no live location")

// Last reported position of a technician heading to (or working) a job.
type LiveLocation struct {
	Coords     domain.Coordinates
	ETASeconds *int
	ReportedAt time.Time
}

// Port: a boundary for the short-lived live-location record written by
// en-route pings. Entries are expected to expire on their own; Clear removes
// one eagerly when the job reaches a terminal state.
type LiveLocationStore interface {
	Set(ctx context.Context, jobID uuid.UUID, loc LiveLocation) error

	// Get returns the latest live location for a job, or ErrNoLiveLocation.
	Get(ctx context.Context, jobID uuid.UUID) (LiveLocation, error)

	Clear(ctx context.Context, jobID uuid.UUID) error
}
