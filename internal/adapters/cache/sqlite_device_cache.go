package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLite backed cache mapping vehicle ids to telemetry device ids.
type SqliteDeviceCache struct {
	DB  *sql.DB
	TTL time.Duration
	Now func() time.Time
}

func NewSqliteDeviceCache(db *sql.DB, ttl time.Duration) *SqliteDeviceCache {
	return &SqliteDeviceCache{DB: db, TTL: ttl, Now: time.Now}
}

// Fetch the cached device id for a vehicle.
func (s *SqliteDeviceCache) Get(ctx context.Context, vehicleID string) (string, bool, error) {
	if s.DB == nil {
		return "", false, errors.New("device cache: db is nil")
	}

	var deviceID string
	var updatedAt int64
	err := s.DB.QueryRowContext(ctx, `
	SELECT
        device_id,
        updated_at
    FROM device_cache
    WHERE vehicle_id = ?;
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
func (s *SqliteDeviceCache) Put(ctx context.Context, vehicleID, deviceID string) error {
	if s.DB == nil {
		return errors.New("device cache: db is nil")
	}
	if strings.TrimSpace(vehicleID) == "" || strings.TrimSpace(deviceID) == "" {
		return errors.New("insert device cache: empty vehicle or device id")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO device_cache (
        vehicle_id,
        device_id,
        updated_at
    )
    VALUES (?, ?, ?);
	`, vehicleID, deviceID, now(s.Now).Unix())
	if err != nil {
		return fmt.Errorf("insert device cache vehicle=%q: %w", vehicleID, err)
	}

	return nil
}
