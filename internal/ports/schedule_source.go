package ports

import (
	"context"

	"school-bus-trip-service/internal/domain"
)

// Port: a boundary for reading raw scheduling (RAS) snapshots.
type ScheduleSource interface {
	// Fetch the full table (header row plus data rows) for a snapshot kind.
	FetchSchedule(ctx context.Context, kind domain.SnapshotKind) (domain.Table, error)
}
