package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"school-bus-trip-service/internal/platform/obs"
)

// SQLDeviceCache is a postgres-backed cache mapping vehicle ids to telemetry
// device ids. Entries older than TTL are treated as misses; a zero TTL keeps
// entries forever.
type SQLDeviceCache struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSQLDeviceCache(db *sql.DB, ttl time.Duration) *SQLDeviceCache {
	return &SQLDeviceCache{DB: db, TTL: ttl, Now: time.Now}
}

// Fetch the cached device id for a vehicle.
func (s *SQLDeviceCache) Get(ctx context.Context, vehicleID string) (_ string, _ bool, err error) {
	defer obs.Time(ctx, "device.cache.Get")(&err)

	if s.DB == nil {
		return "", false, errors.New("device cache: db is nil")
	}

	var deviceID string
	var updatedAt int64
	err = s.DB.QueryRowContext(ctx, `
	SELECT device_id, updated_at
    FROM device_cache
    WHERE vehicle_id = $1;
	`, vehicleID).Scan(&deviceID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get device cache: query device_cache table: %w", err)
	}

	if expired(updatedAt, s.TTL, s.Now) {
		return "", false, nil
	}
	return deviceID, true, nil
}

// Store a vehicle id -> device id mapping.
func (s *SQLDeviceCache) Put(ctx context.Context, vehicleID, deviceID string) error {
	if s.DB == nil {
		return errors.New("device cache: db is nil")
	}
	if strings.TrimSpace(vehicleID) == "" || strings.TrimSpace(deviceID) == "" {
		return errors.New("insert device cache: empty vehicle or device id")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO device_cache (vehicle_id, device_id, updated_at)
    VALUES ($1, $2, $3)
	ON CONFLICT (vehicle_id) DO UPDATE
	SET device_id = EXCLUDED.device_id,
		updated_at = EXCLUDED.updated_at;
	`, vehicleID, deviceID, now(s.Now).Unix())
	if err != nil {
		return fmt.Errorf("insert device cache vehicle=%q: %w", vehicleID, err)
	}

	return nil
}

func now(clock func() time.Time) time.Time {
	if clock != nil {
		return clock()
	}
	return time.Now()
}

func expired(updatedAt int64, ttl time.Duration, clock func() time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now(clock).Sub(time.Unix(updatedAt, 0)) > ttl
}
