package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/adapters/cache"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/platform/obs"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// ORSProvider implements both the Geocoder and TravelEstimator ports using
// OpenRouteService.
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode caching
//   - Persistent travel-time caching keyed by coordinate pairs
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSProvider struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	profile      string
	country      string
	geocodeCache *cache.SQLGeocodeCache
	travelCache  *cache.SQLTravelCache
}

type Option func(*ORSProvider)

// WithBaseURL overrides the ORS endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(p *ORSProvider) { p.baseURL = strings.TrimRight(u, "/") }
}

func NewORSProvider(
	apiKey string,
	geocodeCache *cache.SQLGeocodeCache,
	travelCache *cache.SQLTravelCache,
	opts ...Option,
) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	p := &ORSProvider{
		session:      &http.Client{Timeout: 10 * time.Second},
		apiKey:       apiKey,
		baseURL:      "https://api.openrouteservice.org",
		profile:      "driving-car",
		country:      "US",
		geocodeCache: geocodeCache,
		travelCache:  travelCache,
	}
	for _, o := range opts {
		o(p)
	}

	return p, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (o *ORSProvider) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Resolve geocodes a single free-text address (/geocode/search).
// A well-formed response with zero candidates maps to ports.ErrAddressNotFound
// so that callers can distinguish "bad address" from "geocoder down".
func (o *ORSProvider) Resolve(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Resolve")(&err)

	norm := o.normalize(address)
	if norm == "" {
		return domain.Coordinates{}, fmt.Errorf("resolve address: %w", ports.ErrAddressNotFound)
	}

	if o.geocodeCache != nil {
		hits, err := o.geocodeCache.GetMany(ctx, []string{norm})
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("resolve address: geocode cache: %w", err)
		}
		if c, ok := hits[norm]; ok {
			return c, nil
		}
	}

	endpoint := o.baseURL + "/geocode/search"
	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("boundary.country", o.country)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: decode response: %w", norm, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: %w", norm, ports.ErrAddressNotFound)
	}

	raw := decoded.Features[0].Geometry.Coordinates
	if len(raw) != 2 {
		return domain.Coordinates{}, fmt.Errorf("resolve address %q: invalid coordinate format", norm)
	}

	c := domain.Coordinates{Lon: raw[0], Lat: raw[1]}

	if o.geocodeCache != nil {
		if err := o.geocodeCache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			log.Printf("geocode cache write failed: %v", err)
		}
	}

	return c, nil
}

// Estimate delegates to the batched path to reuse caching and matrix logic.
func (o *ORSProvider) Estimate(ctx context.Context, from, to domain.Coordinates) (ports.TravelResult, error) {
	results, err := o.EstimateMany(ctx, from, []domain.Coordinates{to})
	if err != nil {
		return ports.TravelResult{}, fmt.Errorf("estimate %s -> %s: %w", from.Key(), to.Key(), err)
	}
	if len(results) != 1 {
		return ports.TravelResult{}, fmt.Errorf("estimate %s -> %s: got %d results", from.Key(), to.Key(), len(results))
	}
	return results[0], nil
}

// EstimateMany computes travel results from a single origin to many
// destinations, consulting the persistent cache before issuing a matrix call.
// Results come back in destination order.
func (o *ORSProvider) EstimateMany(
	ctx context.Context,
	from domain.Coordinates,
	to []domain.Coordinates,
) (_ []ports.TravelResult, err error) {
	defer obs.Time(ctx, "ors.EstimateMany")(&err)

	if len(to) == 0 {
		return []ports.TravelResult{}, nil
	}

	originKey := from.Key()
	destKeys := make([]string, len(to))
	for i, c := range to {
		destKeys[i] = c.Key()
	}

	hits := make(map[string]ports.TravelResult)
	if o.travelCache != nil {
		var err error
		hits, err = o.travelCache.GetMany(ctx, originKey, destKeys)
		if err != nil {
			return nil, fmt.Errorf("travel cache: %w", err)
		}
	}

	missIdx := make([]int, 0, len(to))
	seen := make(map[string]struct{}, len(to))
	for i, k := range destKeys {
		if _, ok := hits[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		missIdx = append(missIdx, i)
	}

	if len(missIdx) > 0 {
		missCoords := make([]domain.Coordinates, len(missIdx))
		for i, idx := range missIdx {
			missCoords[i] = to[idx]
		}

		fetched, err := o.fetchMatrixRow(ctx, from, missCoords)
		if err != nil {
			return nil, fmt.Errorf("fetching matrix row: %w", err)
		}

		fresh := make(map[string]ports.TravelResult, len(fetched))
		for i, idx := range missIdx {
			k := destKeys[idx]
			hits[k] = fetched[i]
			fresh[k] = fetched[i]
		}

		if o.travelCache != nil {
			if err := o.travelCache.PutMany(ctx, originKey, fresh); err != nil {
				log.Printf("travel cache write failed: %v", err)
			}
		}
	}

	out := make([]ports.TravelResult, len(to))
	for i, k := range destKeys {
		r, ok := hits[k]
		if !ok {
			return nil, fmt.Errorf("missing travel result for %s", k)
		}
		out[i] = r
	}

	return out, nil
}
