package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bluele/gcache"

	"school-bus-trip-service/internal/ports"
)

// TieredDeviceCache keeps recent lookups in an in-process LRU in front of a
// shared backing cache. Backing hits are copied into the LRU.
type TieredDeviceCache struct {
	lru     gcache.Cache
	ttl     time.Duration
	backing ports.DeviceCache
}

// NewTieredDeviceCache builds the LRU with size entries. backing may be nil.
func NewTieredDeviceCache(size int, ttl time.Duration, backing ports.DeviceCache) *TieredDeviceCache {
	return &TieredDeviceCache{
		lru:     gcache.New(size).LRU().Build(),
		ttl:     ttl,
		backing: backing,
	}
}

func (t *TieredDeviceCache) Get(ctx context.Context, vehicleID string) (string, bool, error) {
	if v, err := t.lru.Get(vehicleID); err == nil {
		return v.(string), true, nil
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return "", false, err
	}

	if t.backing == nil {
		return "", false, nil
	}

	id, ok, err := t.backing.Get(ctx, vehicleID)
	if err != nil || !ok {
		return "", false, err
	}
	t.remember(vehicleID, id)
	return id, true, nil
}

func (t *TieredDeviceCache) Put(ctx context.Context, vehicleID, deviceID string) error {
	t.remember(vehicleID, deviceID)
	if t.backing == nil {
		return nil
	}
	return t.backing.Put(ctx, vehicleID, deviceID)
}

func (t *TieredDeviceCache) remember(vehicleID, deviceID string) {
	if t.ttl > 0 {
		_ = t.lru.SetWithExpire(vehicleID, deviceID, t.ttl)
		return
	}
	_ = t.lru.Set(vehicleID, deviceID)
}
