package ports

import (
	"context"
	"time"

	"school-bus-trip-service/internal/domain"
)

// Port: a boundary for reading the route-optimization (OPT) dump.
type OptRepository interface {
	// Return the rows of the latest extraction on or before date for one route.
	ListRouteRows(ctx context.Context, route string, date time.Time) (domain.Table, error)
}
