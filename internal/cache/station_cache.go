package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"chargesure/internal/models"
)

const stationsKey = "stations:all"

// StationCache keeps a JSON snapshot of the full station list in Redis so a
// transient upstream outage degrades to a stale view instead of a blank one.
type StationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStationCache returns a redis-backed station snapshot cache.
func NewStationCache(client *redis.Client, ttl time.Duration) *StationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StationCache{client: client, ttl: ttl}
}

// Save replaces the cached snapshot.
func (c *StationCache) Save(ctx context.Context, stations []models.Station) error {
	data, err := json.Marshal(stations)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, stationsKey, data, c.ttl).Err()
}

// Load returns the cached snapshot, or redis.Nil when absent or expired.
func (c *StationCache) Load(ctx context.Context) ([]models.Station, error) {
	raw, err := c.client.Get(ctx, stationsKey).Result()
	if err != nil {
		return nil, err
	}
	var stations []models.Station
	if err := json.Unmarshal([]byte(raw), &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// Invalidate drops the snapshot.
func (c *StationCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, stationsKey).Err()
}
