package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

var (
	// Every job failed geocoding; there is nothing to route.
	ErrNoRoutableStops = errors.New("no routable stops")

	// The travel estimator failed mid-computation. Planning aborts outright:
	// an incomplete travel matrix could silently produce a wrong greedy choice,
	// so no partial or best-effort plan is ever returned.
	ErrTravelEstimation = errors.New("travel estimation failed")
)

// Output of one planning run: the plan plus the jobs that had to be excluded
// because their addresses could not be geocoded.
type RoutePlanResult struct {
	Plan          *domain.RoutePlan
	DroppedJobIDs []uuid.UUID
}

type legResult struct {
	jobID  uuid.UUID
	result ports.TravelResult
	err    error
}

// PlanRoute computes a technician's stop sequence using a greedy
// nearest-neighbor algorithm.
//
// The algorithm minimizes immediate travel duration at each step.
// It does not attempt global route optimization (e.g., VRP solvers).
// The design prioritizes determinism and sub-second responses over optimality:
// daily job counts are small and travel-time queries dominate the cost.
func PlanRoute(
	ctx context.Context,
	technicianID uuid.UUID,
	date string,
	start domain.Coordinates,
	startAt time.Time,
	jobs []*domain.Job,
	geocoder ports.Geocoder,
	estimator ports.TravelEstimator,
) (*RoutePlanResult, error) {
	coords, dropped := resolveJobCoords(ctx, jobs, geocoder)

	if len(coords) == 0 {
		return nil, fmt.Errorf("plan route: technician %s on %s: %w", technicianID, date, ErrNoRoutableStops)
	}

	unvisited := make(map[uuid.UUID]struct{}, len(coords))
	for id := range coords {
		unvisited[id] = struct{}{}
	}

	bySize := make(map[uuid.UUID]*int, len(jobs))
	for _, j := range jobs {
		bySize[j.ID] = j.SquareFootage
	}

	currentPos := start
	currentTime := startAt

	stops := make([]domain.Stop, 0, len(unvisited))
	totalDistanceMeters := 0
	totalDurationSeconds := 0

	for len(unvisited) > 0 {
		candidates := make([]uuid.UUID, 0, len(unvisited))
		for id := range unvisited {
			candidates = append(candidates, id)
		}

		legs, err := estimateLegs(ctx, estimator, currentPos, candidates, coords)
		if err != nil {
			return nil, fmt.Errorf("plan route: from %s: %w: %v", currentPos.Key(), ErrTravelEstimation, err)
		}

		var bestID uuid.UUID
		var bestSet bool
		minDuration := math.MaxInt64

		// Select next stop by minimum travel duration (greedy step.)
		for _, id := range candidates {
			d := legs[id].DurationSeconds
			// Tie-breaker ensures deterministic ordering when durations are equal.
			if d < minDuration || (d == minDuration && bestSet && id.String() < bestID.String()) {
				minDuration = d
				bestID = id
				bestSet = true
			}
		}
		if !bestSet {
			return nil, errors.New("plan route: failed to select next stop")
		}

		leg := legs[bestID]
		arriveAt := currentTime.Add(time.Duration(leg.DurationSeconds) * time.Second)
		serviceMinutes := domain.EstimateServiceMinutes(bySize[bestID])
		departAt := arriveAt.Add(time.Duration(serviceMinutes) * time.Minute)

		totalDistanceMeters += leg.DistanceMeters
		totalDurationSeconds += leg.DurationSeconds + serviceMinutes*60

		stops = append(stops, domain.Stop{
			JobID:          bestID,
			Seq:            len(stops) + 1,
			Coords:         coords[bestID],
			ArriveAt:       arriveAt,
			DepartAt:       departAt,
			ServiceMinutes: serviceMinutes,
		})

		delete(unvisited, bestID)
		currentPos = coords[bestID]
		currentTime = departAt
	}

	return &RoutePlanResult{
		Plan: &domain.RoutePlan{
			TechnicianID:         technicianID,
			Date:                 date,
			Start:                start,
			StartAt:              startAt,
			EndAt:                currentTime,
			Stops:                stops,
			TotalDurationSeconds: totalDurationSeconds,
			TotalDistanceMeters:  totalDistanceMeters,
		},
		DroppedJobIDs: dropped,
	}, nil
}

// resolveJobCoords returns planning coordinates per job, geocoding addresses
// for jobs that lack them. A job whose address cannot be geocoded is dropped
// from the plan, not fatal: the caller reports the dropped IDs so nothing goes
// missing silently.
func resolveJobCoords(
	ctx context.Context,
	jobs []*domain.Job,
	geocoder ports.Geocoder,
) (map[uuid.UUID]domain.Coordinates, []uuid.UUID) {
	coords := make(map[uuid.UUID]domain.Coordinates, len(jobs))
	dropped := make([]uuid.UUID, 0)

	for _, j := range jobs {
		if j.Coords != nil {
			coords[j.ID] = *j.Coords
			continue
		}

		c, err := geocoder.Resolve(ctx, j.Address)
		if err != nil {
			log.Printf("plan route: drop job_id=%s addr=%q geocode err=%v", j.ID, j.Address, err)
			dropped = append(dropped, j.ID)
			continue
		}
		coords[j.ID] = c
	}

	return coords, dropped
}

// estimateLegs fetches travel results from the current position to every
// remaining candidate. Queries within one round are independent, so they fan
// out concurrently; this changes latency, not the selection outcome.
func estimateLegs(
	ctx context.Context,
	estimator ports.TravelEstimator,
	from domain.Coordinates,
	candidates []uuid.UUID,
	coords map[uuid.UUID]domain.Coordinates,
) (map[uuid.UUID]ports.TravelResult, error) {
	// Prefer batched lookups when supported to reduce external API calls.
	if matrix, ok := estimator.(ports.TravelMatrixEstimator); ok {
		dests := make([]domain.Coordinates, 0, len(candidates))
		for _, id := range candidates {
			dests = append(dests, coords[id])
		}

		results, err := matrix.EstimateMany(ctx, from, dests)
		if err != nil {
			return nil, err
		}
		if len(results) != len(candidates) {
			return nil, fmt.Errorf("matrix returned %d results for %d destinations", len(results), len(candidates))
		}

		out := make(map[uuid.UUID]ports.TravelResult, len(candidates))
		for i, id := range candidates {
			out[id] = results[i]
		}
		return out, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, 5)
	resultsCh := make(chan legResult, len(candidates))
	var wg sync.WaitGroup

	for _, id := range candidates {
		wg.Add(1)
		go func(id uuid.UUID) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			r, err := estimator.Estimate(ctx, from, coords[id])
			if err != nil {
				resultsCh <- legResult{jobID: id, err: err}
				cancel()
				return
			}
			resultsCh <- legResult{jobID: id, result: r}
		}(id)
	}

	wg.Wait()
	close(resultsCh)

	out := make(map[uuid.UUID]ports.TravelResult, len(candidates))
	var firstErr error
	for r := range resultsCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
			continue
		}
		out[r.jobID] = r.result
	}
	if firstErr != nil {
		return nil, firstErr
	}

	for _, id := range candidates {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("missing travel result for job %s", id)
		}
	}

	return out, nil
}
