package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"school-bus-trip-service/internal/domain"
)

// FormatTrace validates raw telemetry points and converts them to TracePoints
// in source order. Points with unparseable coordinates or timestamps are
// dropped and counted; a missing or non-numeric speed becomes 0.
func FormatTrace(raw []domain.RawTracePoint) domain.Trace {
	out := domain.Trace{Points: make([]domain.TracePoint, 0, len(raw))}

	for _, p := range raw {
		lat, latErr := parseNumber(p.Latitude)
		lon, lonErr := parseNumber(p.Longitude)
		if latErr != nil || lonErr != nil || !(domain.Coordinates{Lon: lon, Lat: lat}).Valid() {
			out.Dropped++
			continue
		}

		ts, ok := ParseTimestamp(p.DateTime, "log_record")
		if !ok {
			out.Dropped++
			continue
		}

		speed, err := parseNumber(p.Speed)
		if err != nil {
			speed = 0
		}

		out.Points = append(out.Points, domain.TracePoint{
			Lat:       lat,
			Lon:       lon,
			Timestamp: ts,
			SpeedKph:  speed,
		})
	}

	return out
}

// parseNumber accepts the numeric shapes JSON decoders and drivers produce.
func parseNumber(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, err
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, err
		}
		f = parsed
	default:
		return 0, fmt.Errorf("parse number: unsupported type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parse number: non-finite value %v", v)
	}
	return f, nil
}
