package services

import (
	"fmt"
	"math"
	"strings"

	"school-bus-trip-service/internal/domain"
)

const kphToMph = 0.621371

// Exception priorities; higher wins when windows overlap.
const (
	priorityIdling = iota
	priorityOther
	prioritySpeeding
)

func exceptionPriority(rule string) int {
	r := strings.ToLower(rule)
	switch {
	case strings.Contains(r, "speeding"):
		return prioritySpeeding
	case strings.Contains(r, "idling"):
		return priorityIdling
	default:
		return priorityOther
	}
}

// Annotate normalizes raw exceptions and tags every trace point with the
// highest-priority exception window covering it. Speeding exceptions get the
// maximum observed speed inside their window appended to their details.
// Neither input is modified.
func Annotate(points []domain.TracePoint, raw []domain.RawException) domain.Annotation {
	var out domain.Annotation

	for _, r := range raw {
		e, ok := normalizeException(r)
		if !ok {
			out.Discarded++
			continue
		}
		if exceptionPriority(e.Type) == prioritySpeeding {
			if maxKph, ok := maxSpeedWithin(points, e); ok {
				msg := fmt.Sprintf("Maximum Speed: %d MPH", int(math.Round(maxKph*kphToMph)))
				if e.Details == "" {
					e.Details = msg
				} else {
					e.Details += "; " + msg
				}
			}
		}
		out.Exceptions = append(out.Exceptions, e)
	}

	out.Points = make([]domain.AnnotatedPoint, len(points))
	for i, p := range points {
		ap := domain.AnnotatedPoint{TracePoint: p, ExceptionType: domain.NoException, ExceptionDetails: domain.NoException}
		if best := coveringException(out.Exceptions, p); best >= 0 {
			e := out.Exceptions[best]
			ap.ExceptionType = e.Type
			ap.ExceptionDetails = e.Details
			if ap.ExceptionDetails == "" {
				ap.ExceptionDetails = domain.NoException
			}
		}
		out.Points[i] = ap
	}

	return out
}

func normalizeException(r domain.RawException) (domain.SafetyException, bool) {
	start, ok := ParseTimestamp(r.Start, "exception_start")
	if !ok {
		return domain.SafetyException{}, false
	}
	end, ok := ParseTimestamp(r.End, "exception_end")
	if !ok {
		return domain.SafetyException{}, false
	}
	if end.Before(start) {
		start, end = end, start
	}

	duration, err := parseNumber(r.Duration)
	if err != nil || duration < 0 {
		duration = end.Sub(start).Seconds()
	}

	rule := strings.TrimSpace(r.Rule)
	if rule == "" {
		rule = "Unknown"
	}

	return domain.SafetyException{
		Type:            rule,
		Start:           start,
		End:             end,
		DurationSeconds: duration,
		Details:         strings.TrimSpace(r.Details),
	}, true
}

func maxSpeedWithin(points []domain.TracePoint, e domain.SafetyException) (float64, bool) {
	found := false
	var maxKph float64
	for _, p := range points {
		if !e.Contains(p.Timestamp) {
			continue
		}
		if !found || p.SpeedKph > maxKph {
			maxKph = p.SpeedKph
			found = true
		}
	}
	return maxKph, found
}

// coveringException returns the index of the winning exception for p, or -1.
// Ties on priority go to the earliest start.
func coveringException(exceptions []domain.SafetyException, p domain.TracePoint) int {
	best := -1
	for i, e := range exceptions {
		if !e.Contains(p.Timestamp) {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		cur, top := exceptionPriority(e.Type), exceptionPriority(exceptions[best].Type)
		if cur > top || (cur == top && e.Start.Before(exceptions[best].Start)) {
			best = i
		}
	}
	return best
}
