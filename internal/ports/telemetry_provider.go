package ports

import (
	"context"
	"time"

	"school-bus-trip-service/internal/domain"
)

// Contract for reading GPS telemetry for a vehicle.
type TelemetryProvider interface {
	// Resolve a canonical vehicle id to the telemetry device id.
	// Returns an error wrapping domain.ErrNotFound when no device matches.
	LookupDevice(ctx context.Context, vehicleID string) (string, error)
	// Return raw log records for a device within [from, to].
	ListLogRecords(ctx context.Context, deviceID string, from, to time.Time) ([]domain.RawTracePoint, error)
}

// Optional extension of TelemetryProvider that reports safety-rule exceptions.
type ExceptionProvider interface {
	// Return raw exception events for a device within [from, to].
	ListExceptions(ctx context.Context, deviceID string, from, to time.Time) ([]domain.RawException, error)
}
