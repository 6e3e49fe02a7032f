package ports

import (
	"context"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
)

// Distance and drive duration between two coordinates.
type TravelResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for retrieving travel distance and duration between coordinates.
type TravelEstimator interface {
	// Estimate returns travel distance and drive duration from one point to another.
	Estimate(ctx context.Context, from, to domain.Coordinates) (TravelResult, error)
}

// Optional extension of TravelEstimator that supports batched lookups.
// Results are returned in the same order as the destinations.
type TravelMatrixEstimator interface {
	TravelEstimator
	// EstimateMany returns travel results from one origin to many destinations.
	EstimateMany(ctx context.Context, from domain.Coordinates, to []domain.Coordinates) ([]TravelResult, error)
}
