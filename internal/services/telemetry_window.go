package services

import (
	"time"

	"school-bus-trip-service/internal/domain"
)

// SessionWindow returns the UTC telemetry window for one session on a date:
// AM covers 10:00-16:00, PM 16:00-23:59:59. Both bounds are inclusive.
func SessionWindow(date time.Time, session domain.Session) (from, to time.Time) {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if session == domain.SessionPM {
		return d.Add(16 * time.Hour), d.Add(24*time.Hour - time.Second)
	}
	return d.Add(10 * time.Hour), d.Add(16 * time.Hour)
}

// DayWindow covers both sessions of a date.
func DayWindow(date time.Time) (from, to time.Time) {
	from, _ = SessionWindow(date, domain.SessionAM)
	_, to = SessionWindow(date, domain.SessionPM)
	return from, to
}

// withinWindow keeps the points in [from, to], preserving order.
func withinWindow(points []domain.TracePoint, from, to time.Time) []domain.TracePoint {
	out := make([]domain.TracePoint, 0, len(points))
	for _, p := range points {
		if p.Timestamp.Before(from) || p.Timestamp.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}
