package geo

import (
	"context"
	"fmt"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

type MockLeg struct {
	From, To domain.Coordinates
	Meters   int
	Seconds  int
}

// MockTravelEstimator serves travel results from a fixed table of legs.
type MockTravelEstimator struct {
	m map[string]ports.TravelResult

	// Err, when set, is returned for every query.
	Err error
}

func NewMockTravelEstimator(legs []MockLeg) *MockTravelEstimator {
	m := make(map[string]ports.TravelResult, len(legs))
	for _, l := range legs {
		m[l.From.Key()+"|"+l.To.Key()] = ports.TravelResult{
			DistanceMeters:  l.Meters,
			DurationSeconds: l.Seconds,
		}
	}
	return &MockTravelEstimator{m: m}
}

func (p *MockTravelEstimator) Estimate(ctx context.Context, from, to domain.Coordinates) (ports.TravelResult, error) {
	if p.Err != nil {
		return ports.TravelResult{}, p.Err
	}

	r, ok := p.m[from.Key()+"|"+to.Key()]
	if !ok {
		return ports.TravelResult{}, fmt.Errorf("missing leg %s -> %s", from.Key(), to.Key())
	}
	return r, nil
}

// MockGeocoder resolves addresses from a fixed table; anything else is NotFound.
type MockGeocoder struct {
	m map[string]domain.Coordinates
}

func NewMockGeocoder(addresses map[string]domain.Coordinates) *MockGeocoder {
	return &MockGeocoder{m: addresses}
}

func (g *MockGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	c, ok := g.m[address]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("resolve %q: %w", address, ports.ErrAddressNotFound)
	}
	return c, nil
}
