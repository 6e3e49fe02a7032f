package livetrack

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// MemoryStore is an in-process LiveLocationStore used when no Redis address
// is configured and by tests. Entries never expire; Clear is the only eviction.
type MemoryStore struct {
	mu sync.Mutex
	m  map[uuid.UUID]ports.LiveLocation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[uuid.UUID]ports.LiveLocation)}
}

func (s *MemoryStore) Set(ctx context.Context, jobID uuid.UUID, loc ports.LiveLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[jobID] = loc
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, jobID uuid.UUID) (ports.LiveLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.m[jobID]
	if !ok {
		return ports.LiveLocation{}, fmt.Errorf("live location get %s: %w", jobID, ports.ErrNoLiveLocation)
	}
	return loc, nil
}

func (s *MemoryStore) Clear(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, jobID)
	return nil
}
