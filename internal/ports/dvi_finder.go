package ports

import (
	"context"
	"time"
)

// Contract for locating a driver vehicle inspection (DVI) document.
type DVIFinder interface {
	// Return a browser link to the inspection file for a depot, route and date.
	// Returns an error wrapping domain.ErrNotFound when no file exists.
	FindInspection(ctx context.Context, depot string, route string, date time.Time) (string, error)
}
