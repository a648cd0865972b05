package services

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// date, clock, optional fraction, optional zone designator
var isoTimestamp = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2})[T ](\d{2}:\d{2}(?::\d{2})?)(?:\.(\d+))?\s*(Z|z|[+-]\d{2}(?::?\d{2})?)?$`,
)

// ParseTimestamp normalizes a timestamp-like value to a UTC instant truncated to microseconds.
// It accepts time.Time, *time.Time, ISO-8601 strings (with or without fraction, Z or offset)
// and, as a fallback, anything the permissive dateparse parser understands.
// Values without zone information are taken as UTC. label only annotates failure logs.
func ParseTimestamp(value any, label string) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC().Truncate(time.Microsecond), true
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC().Truncate(time.Microsecond), true
	case string:
		return parseTimestampString(v, label)
	case []byte:
		return parseTimestampString(string(v), label)
	default:
		return time.Time{}, false
	}
}

func parseTimestampString(raw string, label string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := parseISO(s); ok {
		return t, true
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		log.Printf("parse timestamp: label=%s value=%q err=%v", label, s, err)
		return time.Time{}, false
	}
	return t.UTC().Truncate(time.Microsecond), true
}

func parseISO(s string) (time.Time, bool) {
	m := isoTimestamp.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	date, clock, frac, zone := m[1], m[2], m[3], m[4]
	if len(clock) == len("15:04") {
		clock += ":00"
	}
	if len(frac) > 6 {
		frac = frac[:6]
	}

	var b strings.Builder
	b.WriteString(date)
	b.WriteByte('T')
	b.WriteString(clock)
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}

	if zone == "" {
		t, err := time.ParseInLocation("2006-01-02T15:04:05", b.String(), time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}

	b.WriteString(normalizeZone(zone))
	t, err := time.Parse(time.RFC3339, b.String())
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// normalizeZone rewrites Z, +HH and +HHMM as an RFC 3339 offset.
func normalizeZone(z string) string {
	switch {
	case z == "Z" || z == "z":
		return "Z"
	case len(z) == 3:
		return z + ":00"
	case len(z) == 5:
		return z[:3] + ":" + z[3:]
	default:
		return z
	}
}
