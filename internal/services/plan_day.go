package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/metrics"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// The start address itself could not be geocoded, so there is no origin to
// plan from. Unlike a per-job failure this is fatal to the call.
var ErrStartUnroutable = errors.New("start address unroutable")

// Planner orchestrates one technician-day planning run: load assigned jobs,
// resolve the start address, compute the stop sequence and persist the plan,
// replacing any prior plan for the same (technician, date).
type Planner struct {
	Jobs      ports.JobRepository
	Routes    ports.RouteRepository
	Geocoder  ports.Geocoder
	Estimator ports.TravelEstimator
	Metrics   metrics.Sink
}

type PlanDayRequest struct {
	TechnicianID uuid.UUID
	Date         string
	StartAddress string
	StartAt      time.Time
}

// PlanTechnicianDay runs the full planning flow. Nothing is persisted unless
// planning succeeds end to end.
func (p *Planner) PlanTechnicianDay(ctx context.Context, req PlanDayRequest) (_ *RoutePlanResult, err error) {
	started := time.Now()
	var result *RoutePlanResult
	defer func() {
		stops, dropped := 0, 0
		if result != nil {
			stops = len(result.Plan.Stops)
			dropped = len(result.DroppedJobIDs)
		}
		p.Metrics.PlanCompleted(time.Since(started), stops, dropped, err)
	}()

	assigned, err := p.Jobs.GetAssignedJobs(ctx, req.TechnicianID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("plan day: list assigned jobs: %w", err)
	}

	// Completed and cancelled jobs have no remaining visit to schedule.
	jobs := assigned[:0:0]
	for _, j := range assigned {
		if !j.Status.Terminal() {
			jobs = append(jobs, j)
		}
	}

	start, err := p.Geocoder.Resolve(ctx, req.StartAddress)
	if err != nil {
		return nil, fmt.Errorf("plan day: resolve start %q: %w: %v", req.StartAddress, ErrStartUnroutable, err)
	}

	result, err = PlanRoute(ctx, req.TechnicianID, req.Date, start, req.StartAt, jobs, p.Geocoder, p.Estimator)
	if err != nil {
		return nil, fmt.Errorf("plan day: %w", err)
	}

	if err := p.Routes.Replace(ctx, result.Plan); err != nil {
		return nil, fmt.Errorf("plan day: persist plan: %w", err)
	}

	return result, nil
}
