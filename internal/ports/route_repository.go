package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
)

var ErrPlanNotFound = errors.New("route plan not found")

// Port: a boundary for persisting daily route plans.
//
// At most one plan exists per (technician, date); Replace is a wholesale
// overwrite and must be atomic with respect to Get: a concurrent reader never
// observes a partially written stop list.
type RouteRepository interface {
	Replace(ctx context.Context, plan *domain.RoutePlan) error

	// Get returns the stored plan for a technician and date, or ErrPlanNotFound.
	Get(ctx context.Context, technicianID uuid.UUID, date string) (*domain.RoutePlan, error)
}
