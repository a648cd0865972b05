package services

import (
	"slices"

	"school-bus-trip-service/internal/domain"

	"github.com/golang/geo/s2"
	"gonum.org/v1/gonum/stat"
)

const earthRadiusMeters = 6371008.8

// SummarizeTrace computes path length, speed statistics and the time span of
// a trace. Points are taken in the given order.
func SummarizeTrace(points []domain.TracePoint) domain.TraceSummary {
	sum := domain.TraceSummary{Points: len(points)}
	if len(points) == 0 {
		return sum
	}

	speeds := make([]float64, len(points))
	for i, p := range points {
		speeds[i] = p.SpeedKph
		if i > 0 {
			prev := points[i-1]
			a := s2.LatLngFromDegrees(prev.Lat, prev.Lon)
			b := s2.LatLngFromDegrees(p.Lat, p.Lon)
			sum.DistanceMeters += a.Distance(b).Radians() * earthRadiusMeters
		}
	}

	sum.MaxSpeedKph = slices.Max(speeds)
	sum.MeanSpeedKph = stat.Mean(speeds, nil)
	sum.Start = points[0].Timestamp
	sum.End = points[len(points)-1].Timestamp

	return sum
}
