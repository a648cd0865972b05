package ports

import "context"

// Cache of vehicle id -> telemetry device id lookups.
type DeviceCache interface {
	// Return the cached device id and whether it was present.
	Get(ctx context.Context, vehicleID string) (string, bool, error)
	// Store a vehicle id -> device id mapping.
	Put(ctx context.Context, vehicleID string, deviceID string) error
}
