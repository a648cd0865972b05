package telemetry

import (
	"context"
	"fmt"
	"time"

	"school-bus-trip-service/internal/domain"
)

// MockTrack is canned telemetry for one vehicle.
type MockTrack struct {
	VehicleID  string
	DeviceID   string
	Points     []domain.RawTracePoint
	Exceptions []domain.RawException
}

// MockProvider serves canned tracks. With Synthesize set, unknown vehicles get
// a generated device and a short synthetic trip so the service runs without
// telemetry credentials.
type MockProvider struct {
	Synthesize bool

	devices    map[string]string
	points     map[string][]domain.RawTracePoint
	exceptions map[string][]domain.RawException
}

func NewMockProvider(tracks []MockTrack) *MockProvider {
	p := &MockProvider{
		devices:    make(map[string]string, len(tracks)),
		points:     make(map[string][]domain.RawTracePoint, len(tracks)),
		exceptions: make(map[string][]domain.RawException, len(tracks)),
	}
	for _, t := range tracks {
		p.devices[t.VehicleID] = t.DeviceID
		p.points[t.DeviceID] = t.Points
		p.exceptions[t.DeviceID] = t.Exceptions
	}
	return p
}

const syntheticPrefix = "mock-"

func (p *MockProvider) LookupDevice(_ context.Context, vehicleID string) (string, error) {
	if id, ok := p.devices[vehicleID]; ok {
		return id, nil
	}
	if p.Synthesize && vehicleID != "" {
		return syntheticPrefix + vehicleID, nil
	}
	return "", fmt.Errorf("missing device for vehicle %q: %w", vehicleID, domain.ErrNotFound)
}

// ListLogRecords returns the canned points unfiltered; callers apply the window.
func (p *MockProvider) ListLogRecords(_ context.Context, deviceID string, from, to time.Time) ([]domain.RawTracePoint, error) {
	if pts, ok := p.points[deviceID]; ok {
		return pts, nil
	}
	if p.Synthesize {
		return syntheticTrip(from, to), nil
	}
	return nil, fmt.Errorf("missing log records for device %q", deviceID)
}

func (p *MockProvider) ListExceptions(_ context.Context, deviceID string, from, to time.Time) ([]domain.RawException, error) {
	if ex, ok := p.exceptions[deviceID]; ok {
		return ex, nil
	}
	if p.Synthesize {
		return []domain.RawException{
			{DeviceID: deviceID, Rule: "Speeding", Start: from.Add(20 * time.Minute), End: from.Add(25 * time.Minute)},
			{DeviceID: deviceID, Rule: "Idling", Start: from.Add(60 * time.Minute), End: from.Add(65 * time.Minute)},
		}, nil
	}
	return nil, nil
}

// syntheticTrip walks north-east from lower Manhattan every two minutes for
// at most 90 minutes.
func syntheticTrip(from, to time.Time) []domain.RawTracePoint {
	end := from.Add(90 * time.Minute)
	if to.Before(end) {
		end = to
	}

	var out []domain.RawTracePoint
	for i, ts := 0, from; !ts.After(end); i, ts = i+1, ts.Add(2*time.Minute) {
		out = append(out, domain.RawTracePoint{
			Latitude:  40.7128 + float64(i)*0.002,
			Longitude: -74.0060 + float64(i)*0.0015,
			DateTime:  ts.UTC().Format(time.RFC3339),
			Speed:     float64(20 + (i*7)%50),
		})
	}
	return out
}
