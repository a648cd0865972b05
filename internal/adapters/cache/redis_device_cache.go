package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"school-bus-trip-service/internal/platform/obs"
)

const devicePrefix = "schoolbus:device:"

// RedisDeviceCache shares vehicle -> device lookups between service instances.
// Keys expire after TTL; a zero TTL keeps them until evicted.
type RedisDeviceCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisDeviceCache(client *redis.Client, ttl time.Duration) *RedisDeviceCache {
	return &RedisDeviceCache{Client: client, TTL: ttl}
}

// ParseRedisURL builds a client from a redis:// URL.
func ParseRedisURL(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (r *RedisDeviceCache) Get(ctx context.Context, vehicleID string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "device.redis.Get")(&err)

	id, err := r.Client.Get(ctx, devicePrefix+vehicleID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get device cache vehicle=%q: %w", vehicleID, err)
	}
	return id, true, nil
}

func (r *RedisDeviceCache) Put(ctx context.Context, vehicleID, deviceID string) error {
	if err := r.Client.Set(ctx, devicePrefix+vehicleID, deviceID, r.TTL).Err(); err != nil {
		return fmt.Errorf("set device cache vehicle=%q: %w", vehicleID, err)
	}
	return nil
}
