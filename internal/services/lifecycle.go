package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/metrics"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

var (
	// The event violates the state machine guard, e.g. a check-out arriving
	// before any check-in. Rejected without mutating state.
	ErrInvalidTransition = errors.New("invalid transition")

	// The event was submitted by a technician who does not own the job.
	ErrNotAssigned = errors.New("job not assigned to technician")
)

// Tracker applies field events to job lifecycle state.
//
// The guard check and the status write form one atomic unit: the repository
// update is conditional on the expected current status, so two concurrent
// check-ins for the same job cannot both transition it. The loser of the race
// re-reads the job and resolves as an idempotent duplicate instead.
type Tracker struct {
	Jobs     ports.JobRepository
	Live     ports.LiveLocationStore
	Notifier ports.NotificationSink
	Metrics  metrics.Sink
}

type action int

const (
	actReject action = iota
	actTransition
	actNoop
	// actRefresh: en-route ping on an already en-route job. Not a transition,
	// but the live coordinates and ETA are still updated.
	actRefresh
)

// resolve implements the transition table keyed by (current status, event kind).
func resolve(current domain.JobStatus, kind domain.EventKind) (domain.JobStatus, action) {
	switch kind {
	case domain.EventEnRoute:
		switch current {
		case domain.StatusScheduled:
			return domain.StatusEnRoute, actTransition
		case domain.StatusEnRoute:
			return current, actRefresh
		case domain.StatusInProgress, domain.StatusCompleted:
			// A stale retried ping after check-in is harmless.
			return current, actNoop
		}

	case domain.EventCheckIn:
		switch current {
		case domain.StatusScheduled, domain.StatusEnRoute:
			return domain.StatusInProgress, actTransition
		case domain.StatusInProgress, domain.StatusCompleted:
			// Duplicate submission; the check-in already happened.
			return current, actNoop
		}

	case domain.EventCheckOut:
		switch current {
		case domain.StatusInProgress:
			return domain.StatusCompleted, actTransition
		case domain.StatusCompleted:
			return current, actNoop
		}

	case domain.EventCancel:
		switch current {
		case domain.StatusScheduled, domain.StatusEnRoute, domain.StatusInProgress:
			return domain.StatusCancelled, actTransition
		case domain.StatusCancelled:
			return current, actNoop
		}
	}

	return current, actReject
}

// Apply validates a lifecycle event against the job's current state and, if
// the guard passes, performs the transition and its side effects. It returns
// the job's resulting status.
func (t *Tracker) Apply(ctx context.Context, ev domain.LifecycleEvent) (domain.JobStatus, error) {
	status, err := t.apply(ctx, ev)
	t.Metrics.LifecycleEvent(string(ev.Kind), outcomeFor(err))
	return status, err
}

func (t *Tracker) apply(ctx context.Context, ev domain.LifecycleEvent) (domain.JobStatus, error) {
	job, err := t.Jobs.GetJob(ctx, ev.JobID)
	if err != nil {
		return "", fmt.Errorf("lifecycle: load job %s: %w", ev.JobID, err)
	}

	if job.TechnicianID != ev.TechnicianID {
		return "", fmt.Errorf("lifecycle: job %s: %w", ev.JobID, ErrNotAssigned)
	}

	// One retry: if the conditional write loses a race, the re-read state
	// usually resolves the duplicate as an idempotent no-op.
	for attempt := 0; ; attempt++ {
		next, act := resolve(job.Status, ev.Kind)

		switch act {
		case actReject:
			return job.Status, fmt.Errorf(
				"lifecycle: job %s: %s while %s: %w",
				ev.JobID, ev.Kind, job.Status, ErrInvalidTransition,
			)

		case actNoop:
			t.logLatePing(ctx, job, ev)
			return job.Status, nil

		case actRefresh:
			t.writeLive(ctx, ev)
			return job.Status, nil
		}

		fields := transitionFields(ev, next)
		err := t.Jobs.UpdateStatus(ctx, job.ID, job.Status, next, fields)
		if err == nil {
			t.afterTransition(ctx, job, next, ev)
			return next, nil
		}

		if !errors.Is(err, ports.ErrStatusConflict) || attempt > 0 {
			return job.Status, fmt.Errorf("lifecycle: update job %s: %w", ev.JobID, err)
		}

		job, err = t.Jobs.GetJob(ctx, ev.JobID)
		if err != nil {
			return "", fmt.Errorf("lifecycle: reload job %s: %w", ev.JobID, err)
		}
	}
}

// transitionFields maps a successful transition to the Job fields it records.
func transitionFields(ev domain.LifecycleEvent, next domain.JobStatus) ports.StatusUpdate {
	var fields ports.StatusUpdate
	at := ev.ReportedAt
	coords := ev.Coords

	switch next {
	case domain.StatusInProgress:
		fields.CheckInAt = &at
		fields.CheckInCoords = &coords
	case domain.StatusCompleted:
		fields.CheckOutAt = &at
		fields.CheckOutCoords = &coords
	}

	return fields
}

// afterTransition performs the side effects of a successful status change:
// live-location upkeep and the fire-and-forget notification. Failures here
// never fail the transition itself.
func (t *Tracker) afterTransition(ctx context.Context, job *domain.Job, next domain.JobStatus, ev domain.LifecycleEvent) {
	previous := job.Status

	switch next {
	case domain.StatusEnRoute:
		t.writeLive(ctx, ev)
	case domain.StatusCompleted, domain.StatusCancelled:
		if err := t.Live.Clear(ctx, job.ID); err != nil {
			log.Printf("lifecycle: clear live location job_id=%s err=%v", job.ID, err)
		}
	}

	t.Notifier.NotifyStatusChange(ctx, job, previous, next)
}

// writeLive stores the reported position; best effort.
func (t *Tracker) writeLive(ctx context.Context, ev domain.LifecycleEvent) {
	loc := ports.LiveLocation{
		Coords:     ev.Coords,
		ETASeconds: ev.ETASeconds,
		ReportedAt: ev.ReportedAt,
	}
	if err := t.Live.Set(ctx, ev.JobID, loc); err != nil {
		log.Printf("lifecycle: write live location job_id=%s err=%v", ev.JobID, err)
	}
}

// logLatePing keeps coordinates from stale pings visible while the job is
// still being worked, without touching status.
func (t *Tracker) logLatePing(ctx context.Context, job *domain.Job, ev domain.LifecycleEvent) {
	if ev.Kind != domain.EventEnRoute || job.Status != domain.StatusInProgress {
		return
	}
	t.writeLive(ctx, ev)
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeApplied
	case errors.Is(err, ErrInvalidTransition):
		return metrics.OutcomeRejected
	case errors.Is(err, ErrNotAssigned):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
