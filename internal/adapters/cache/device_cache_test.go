package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-bus-trip-service/internal/adapters/repositories"
	"school-bus-trip-service/internal/platform/db"
	"school-bus-trip-service/internal/ports"
)

var (
	_ ports.DeviceCache = (*SQLDeviceCache)(nil)
	_ ports.DeviceCache = (*SqliteDeviceCache)(nil)
	_ ports.DeviceCache = (*RedisDeviceCache)(nil)
	_ ports.DeviceCache = (*TieredDeviceCache)(nil)
)

func TestSqliteDeviceCache(t *testing.T) {
	conn, err := db.OpenSqlite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(conn, ""))

	clock := time.Date(2026, 1, 14, 10, 0, 0, 0, time.UTC)
	c := NewSqliteDeviceCache(conn, time.Hour)
	c.Now = func() time.Time { return clock }
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "NT0123")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "NT0123", "b1"))
	require.NoError(t, c.Put(ctx, "NT0123", "b2"))

	id, ok, err := c.Get(ctx, "NT0123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b2", id)

	clock = clock.Add(2 * time.Hour)
	_, ok, err = c.Get(ctx, "NT0123")
	require.NoError(t, err)
	assert.False(t, ok, "entry older than TTL must miss")

	assert.Error(t, c.Put(ctx, " ", "b3"))
}

func TestRedisDeviceCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	c := NewRedisDeviceCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "NT0123")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "NT0123", "b1"))
	id, ok, err := c.Get(ctx, "NT0123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b1", id)
	assert.Equal(t, time.Minute, mr.TTL(devicePrefix+"NT0123"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "NT0123")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDeviceCacheReportsErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	_, _, err := NewRedisDeviceCache(client, 0).Get(context.Background(), "NT0123")
	assert.Error(t, err)
}

type countingCache struct {
	m    map[string]string
	gets int
}

func (c *countingCache) Get(_ context.Context, vehicleID string) (string, bool, error) {
	c.gets++
	id, ok := c.m[vehicleID]
	return id, ok, nil
}

func (c *countingCache) Put(_ context.Context, vehicleID, deviceID string) error {
	c.m[vehicleID] = deviceID
	return nil
}

func TestTieredDeviceCache(t *testing.T) {
	backing := &countingCache{m: map[string]string{"NT0001": "d1"}}
	c := NewTieredDeviceCache(16, time.Minute, backing)
	ctx := context.Background()

	for range 3 {
		id, ok, err := c.Get(ctx, "NT0001")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "d1", id)
	}
	assert.Equal(t, 1, backing.gets, "later reads should come from the LRU")

	require.NoError(t, c.Put(ctx, "NT0002", "d2"))
	assert.Equal(t, "d2", backing.m["NT0002"])

	id, ok, err := c.Get(ctx, "NT0002")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "d2", id)
	assert.Equal(t, 1, backing.gets)

	_, ok, err = c.Get(ctx, "NT0404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTieredDeviceCacheWithoutBacking(t *testing.T) {
	c := NewTieredDeviceCache(2, 0, nil)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "NT0001")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "NT0001", "d1"))
	id, ok, _ := c.Get(ctx, "NT0001")
	assert.True(t, ok)
	assert.Equal(t, "d1", id)
}
