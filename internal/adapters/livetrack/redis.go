package livetrack

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
	"github.com/RamonASM/aerialshots-portal-sub015/internal/ports"
)

// Time after which a stale live-location entry disappears on its own.
// Pings refresh it; a technician who stops reporting simply ages out.
const DefaultTTL = 30 * time.Minute

// RedisStore keeps one hash per job with the technician's last reported
// position while en route. Redis fits here: the data is ephemeral, shared
// across server processes, and read far more often than jobs themselves.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(jobID uuid.UUID) string {
	return "live:job:" + jobID.String()
}

func (s *RedisStore) Set(ctx context.Context, jobID uuid.UUID, loc ports.LiveLocation) error {
	fields := map[string]any{
		"lon":         strconv.FormatFloat(loc.Coords.Lon, 'f', -1, 64),
		"lat":         strconv.FormatFloat(loc.Coords.Lat, 'f', -1, 64),
		"reported_at": loc.ReportedAt.UTC().Format(time.RFC3339Nano),
	}
	if loc.ETASeconds != nil {
		fields["eta_seconds"] = strconv.Itoa(*loc.ETASeconds)
	}

	k := key(jobID)
	pipe := s.client.Pipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, fields)
	pipe.Expire(ctx, k, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("live location set %s: %w", jobID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, jobID uuid.UUID) (ports.LiveLocation, error) {
	raw, err := s.client.HGetAll(ctx, key(jobID)).Result()
	if err != nil {
		return ports.LiveLocation{}, fmt.Errorf("live location get %s: %w", jobID, err)
	}
	if len(raw) == 0 {
		return ports.LiveLocation{}, fmt.Errorf("live location get %s: %w", jobID, ports.ErrNoLiveLocation)
	}

	var loc ports.LiveLocation

	lon, err := strconv.ParseFloat(raw["lon"], 64)
	if err != nil {
		return ports.LiveLocation{}, fmt.Errorf("live location get %s: parse lon: %w", jobID, err)
	}
	lat, err := strconv.ParseFloat(raw["lat"], 64)
	if err != nil {
		return ports.LiveLocation{}, fmt.Errorf("live location get %s: parse lat: %w", jobID, err)
	}
	loc.Coords = domain.Coordinates{Lon: lon, Lat: lat}

	reportedAt, err := time.Parse(time.RFC3339Nano, raw["reported_at"])
	if err != nil {
		return ports.LiveLocation{}, fmt.Errorf("live location get %s: parse reported_at: %w", jobID, err)
	}
	loc.ReportedAt = reportedAt

	if v, ok := raw["eta_seconds"]; ok {
		eta, err := strconv.Atoi(v)
		if err != nil {
			return ports.LiveLocation{}, fmt.Errorf("live location get %s: parse eta: %w", jobID, err)
		}
		loc.ETASeconds = &eta
	}

	return loc, nil
}

func (s *RedisStore) Clear(ctx context.Context, jobID uuid.UUID) error {
	if err := s.client.Del(ctx, key(jobID)).Err(); err != nil {
		return fmt.Errorf("live location clear %s: %w", jobID, err)
	}
	return nil
}
