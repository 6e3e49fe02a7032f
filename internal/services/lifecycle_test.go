package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/metrics"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// fakeJobRepo mimics the conditional-write contract of the real repository:
// UpdateStatus only applies while the stored status equals the expected one.
type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.Job

	// conflicts, when positive, makes that many UpdateStatus calls fail with
	// ErrStatusConflict without applying, to exercise the retry path.
	// onConflict, if set, runs under the lock when an injected conflict fires,
	// standing in for the concurrent writer that won the race.
	conflicts  int
	onConflict func(*domain.Job)

	updates int
}

func newFakeJobRepo(jobs ...*domain.Job) *fakeJobRepo {
	m := make(map[uuid.UUID]*domain.Job, len(jobs))
	for _, j := range jobs {
		m[j.ID] = j
	}
	return &fakeJobRepo{jobs: m}
}

func (r *fakeJobRepo) GetJob(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, ports.ErrJobNotFound
	}
	copied := *j
	return &copied, nil
}

func (r *fakeJobRepo) GetAssignedJobs(ctx context.Context, technicianID uuid.UUID, date string) ([]*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Job
	for _, j := range r.jobs {
		if j.TechnicianID == technicianID && j.Date == date {
			copied := *j
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeJobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.JobStatus, fields ports.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return ports.ErrJobNotFound
	}
	if r.conflicts > 0 {
		r.conflicts--
		if r.onConflict != nil {
			r.onConflict(j)
		}
		return ports.ErrStatusConflict
	}
	if j.Status != expected {
		return ports.ErrStatusConflict
	}

	j.Status = next
	if fields.CheckInAt != nil {
		j.CheckInAt = fields.CheckInAt
		j.CheckInCoords = fields.CheckInCoords
	}
	if fields.CheckOutAt != nil {
		j.CheckOutAt = fields.CheckOutAt
		j.CheckOutCoords = fields.CheckOutCoords
	}
	r.updates++
	return nil
}

func (r *fakeJobRepo) status(t *testing.T, id uuid.UUID) domain.JobStatus {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		t.Fatalf("job %s missing from repo", id)
	}
	return j.Status
}

type fakeLiveStore struct {
	mu   sync.Mutex
	locs map[uuid.UUID]ports.LiveLocation
}

func newFakeLiveStore() *fakeLiveStore {
	return &fakeLiveStore{locs: make(map[uuid.UUID]ports.LiveLocation)}
}

func (s *fakeLiveStore) Set(ctx context.Context, jobID uuid.UUID, loc ports.LiveLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locs[jobID] = loc
	return nil
}

func (s *fakeLiveStore) Get(ctx context.Context, jobID uuid.UUID) (ports.LiveLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.locs[jobID]
	if !ok {
		return ports.LiveLocation{}, ports.ErrNoLiveLocation
	}
	return loc, nil
}

func (s *fakeLiveStore) Clear(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locs, jobID)
	return nil
}

type notification struct {
	jobID          uuid.UUID
	previous, next domain.JobStatus
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) NotifyStatusChange(ctx context.Context, job *domain.Job, previous, next domain.JobStatus) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{jobID: job.ID, previous: previous, next: next})
}

func newTestTracker(repo *fakeJobRepo) (*Tracker, *fakeLiveStore, *fakeNotifier) {
	live := newFakeLiveStore()
	notifier := &fakeNotifier{}
	tr := &Tracker{Jobs: repo, Live: live, Notifier: notifier, Metrics: metrics.NewNoopSink()}
	return tr, live, notifier
}

func scheduledJob(techID uuid.UUID) *domain.Job {
	return &domain.Job{
		ID:           uuid.New(),
		TechnicianID: techID,
		Date:         "2026-03-09",
		Status:       domain.StatusScheduled,
	}
}

func event(job *domain.Job, kind domain.EventKind) domain.LifecycleEvent {
	return domain.LifecycleEvent{
		JobID:        job.ID,
		TechnicianID: job.TechnicianID,
		Kind:         kind,
		Coords:       domain.Coordinates{Lon: -112.07, Lat: 33.45},
		ReportedAt:   time.Date(2026, 3, 9, 9, 5, 0, 0, time.UTC),
	}
}

func TestTrackerHappyPath(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	repo := newFakeJobRepo(job)
	tr, live, notifier := newTestTracker(repo)
	ctx := context.Background()

	steps := []struct {
		kind domain.EventKind
		want domain.JobStatus
	}{
		{domain.EventEnRoute, domain.StatusEnRoute},
		{domain.EventCheckIn, domain.StatusInProgress},
		{domain.EventCheckOut, domain.StatusCompleted},
	}
	for _, step := range steps {
		status, err := tr.Apply(ctx, event(job, step.kind))
		if err != nil {
			t.Fatalf("%s: %v", step.kind, err)
		}
		if status != step.want {
			t.Fatalf("%s: expected status %s, got %s", step.kind, step.want, status)
		}
	}

	stored, err := repo.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if stored.CheckInAt == nil || stored.CheckInCoords == nil {
		t.Fatal("check-in timestamp/coords not recorded")
	}
	if stored.CheckOutAt == nil || stored.CheckOutCoords == nil {
		t.Fatal("check-out timestamp/coords not recorded")
	}

	// Terminal state clears the live location.
	if _, err := live.Get(ctx, job.ID); !errors.Is(err, ports.ErrNoLiveLocation) {
		t.Fatalf("expected live location cleared, got err=%v", err)
	}

	if len(notifier.sent) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(notifier.sent))
	}
	if last := notifier.sent[2]; last.previous != domain.StatusInProgress || last.next != domain.StatusCompleted {
		t.Fatalf("unexpected final notification %+v", last)
	}
}

func TestTrackerEnRouteWritesLiveLocation(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	repo := newFakeJobRepo(job)
	tr, live, _ := newTestTracker(repo)
	ctx := context.Background()

	eta := 540
	ev := event(job, domain.EventEnRoute)
	ev.ETASeconds = &eta

	if _, err := tr.Apply(ctx, ev); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	loc, err := live.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get live location: %v", err)
	}
	if loc.ETASeconds == nil || *loc.ETASeconds != eta {
		t.Fatalf("expected ETA %d, got %v", eta, loc.ETASeconds)
	}
	if loc.Coords != ev.Coords {
		t.Fatalf("expected coords %v, got %v", ev.Coords, loc.Coords)
	}
}

func TestTrackerRepeatedEnRouteRefreshesWithoutTransition(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	repo := newFakeJobRepo(job)
	tr, live, notifier := newTestTracker(repo)
	ctx := context.Background()

	if _, err := tr.Apply(ctx, event(job, domain.EventEnRoute)); err != nil {
		t.Fatalf("first ping: %v", err)
	}

	second := event(job, domain.EventEnRoute)
	second.Coords = domain.Coordinates{Lon: -112.10, Lat: 33.48}
	status, err := tr.Apply(ctx, second)
	if err != nil {
		t.Fatalf("second ping: %v", err)
	}
	if status != domain.StatusEnRoute {
		t.Fatalf("expected en_route, got %s", status)
	}

	loc, err := live.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get live location: %v", err)
	}
	if loc.Coords != second.Coords {
		t.Fatalf("expected refreshed coords %v, got %v", second.Coords, loc.Coords)
	}
	if repo.updates != 1 {
		t.Fatalf("expected 1 status write, got %d", repo.updates)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("refresh must not notify; got %d notifications", len(notifier.sent))
	}
}

func TestTrackerDuplicateCheckInIsIdempotent(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	job.Status = domain.StatusInProgress
	repo := newFakeJobRepo(job)
	tr, _, notifier := newTestTracker(repo)

	status, err := tr.Apply(context.Background(), event(job, domain.EventCheckIn))
	if err != nil {
		t.Fatalf("duplicate check-in should succeed, got %v", err)
	}
	if status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", status)
	}
	if repo.updates != 0 {
		t.Fatalf("duplicate must not write status, got %d writes", repo.updates)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("duplicate must not notify, got %d notifications", len(notifier.sent))
	}
}

func TestTrackerCheckOutBeforeCheckInRejected(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	job.Status = domain.StatusEnRoute
	repo := newFakeJobRepo(job)
	tr, _, _ := newTestTracker(repo)

	_, err := tr.Apply(context.Background(), event(job, domain.EventCheckOut))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := repo.status(t, job.ID); got != domain.StatusEnRoute {
		t.Fatalf("rejected event must not change status; got %s", got)
	}
}

func TestTrackerRejectsUnassignedTechnician(t *testing.T) {
	job := scheduledJob(uuid.New())
	repo := newFakeJobRepo(job)
	tr, _, _ := newTestTracker(repo)

	ev := event(job, domain.EventCheckIn)
	ev.TechnicianID = uuid.New()

	_, err := tr.Apply(context.Background(), ev)
	if !errors.Is(err, ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}
	if got := repo.status(t, job.ID); got != domain.StatusScheduled {
		t.Fatalf("status must be untouched; got %s", got)
	}
}

func TestTrackerUnknownJob(t *testing.T) {
	repo := newFakeJobRepo()
	tr, _, _ := newTestTracker(repo)

	ev := domain.LifecycleEvent{
		JobID:        uuid.New(),
		TechnicianID: uuid.New(),
		Kind:         domain.EventCheckIn,
		ReportedAt:   time.Now(),
	}
	_, err := tr.Apply(context.Background(), ev)
	if !errors.Is(err, ports.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestTrackerPingAfterCheckInKeepsLocationVisible(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	job.Status = domain.StatusInProgress
	repo := newFakeJobRepo(job)
	tr, live, _ := newTestTracker(repo)
	ctx := context.Background()

	status, err := tr.Apply(ctx, event(job, domain.EventEnRoute))
	if err != nil {
		t.Fatalf("stale ping should be accepted, got %v", err)
	}
	if status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", status)
	}
	if repo.updates != 0 {
		t.Fatalf("stale ping must not write status, got %d writes", repo.updates)
	}
	if _, err := live.Get(ctx, job.ID); err != nil {
		t.Fatalf("expected live location written, got %v", err)
	}
}

func TestTrackerCancelFromAnyActiveState(t *testing.T) {
	for _, from := range []domain.JobStatus{domain.StatusScheduled, domain.StatusEnRoute, domain.StatusInProgress} {
		t.Run(string(from), func(t *testing.T) {
			techID := uuid.New()
			job := scheduledJob(techID)
			job.Status = from
			repo := newFakeJobRepo(job)
			tr, live, _ := newTestTracker(repo)
			ctx := context.Background()

			_ = live.Set(ctx, job.ID, ports.LiveLocation{ReportedAt: time.Now()})

			status, err := tr.Apply(ctx, event(job, domain.EventCancel))
			if err != nil {
				t.Fatalf("cancel from %s: %v", from, err)
			}
			if status != domain.StatusCancelled {
				t.Fatalf("expected cancelled, got %s", status)
			}
			if _, err := live.Get(ctx, job.ID); !errors.Is(err, ports.ErrNoLiveLocation) {
				t.Fatalf("expected live location cleared, got err=%v", err)
			}
		})
	}
}

func TestTrackerCancelCompletedJobRejected(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	job.Status = domain.StatusCompleted
	repo := newFakeJobRepo(job)
	tr, _, _ := newTestTracker(repo)

	_, err := tr.Apply(context.Background(), event(job, domain.EventCancel))
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got := repo.status(t, job.ID); got != domain.StatusCompleted {
		t.Fatalf("status must remain completed; got %s", got)
	}
}

func TestTrackerRetriesOnceOnStatusConflict(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	repo := newFakeJobRepo(job)
	repo.conflicts = 1
	tr, _, _ := newTestTracker(repo)

	status, err := tr.Apply(context.Background(), event(job, domain.EventCheckIn))
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", status)
	}
	if repo.updates != 1 {
		t.Fatalf("expected exactly 1 applied write, got %d", repo.updates)
	}
}

func TestTrackerConcurrentDuplicateCheckInResolvesAsNoop(t *testing.T) {
	techID := uuid.New()
	job := scheduledJob(techID)
	job.Status = domain.StatusEnRoute
	repo := newFakeJobRepo(job)
	// The first write loses the race to an identical check-in; the re-read
	// then sees in_progress and resolves as a duplicate.
	repo.conflicts = 1
	repo.onConflict = func(j *domain.Job) {
		j.Status = domain.StatusInProgress
	}
	tr, _, _ := newTestTracker(repo)

	status, err := tr.Apply(context.Background(), event(job, domain.EventCheckIn))
	if err != nil {
		t.Fatalf("loser of the race should resolve as no-op, got %v", err)
	}
	if status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", status)
	}
}
