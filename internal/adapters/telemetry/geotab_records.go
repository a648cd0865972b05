package telemetry

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/platform/obs"
)

type entityRef struct {
	ID string `json:"id"`
}

type logRecord struct {
	Latitude  any `json:"latitude"`
	Longitude any `json:"longitude"`
	DateTime  any `json:"dateTime"`
	Speed     any `json:"speed"`
}

type exceptionEvent struct {
	ID         string    `json:"id"`
	ActiveFrom any       `json:"activeFrom"`
	ActiveTo   any       `json:"activeTo"`
	Duration   string    `json:"duration"`
	Rule       entityRef `json:"rule"`
	Device     entityRef `json:"device"`
}

type rule struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func windowSearch(deviceID string, from, to time.Time) map[string]any {
	return map[string]any{
		"deviceSearch": entityRef{ID: deviceID},
		"fromDate":     from.UTC().Format(time.RFC3339),
		"toDate":       to.UTC().Format(time.RFC3339),
	}
}

// LookupDevice resolves a vehicle id (the Geotab device name) to its device id.
func (g *GeotabClient) LookupDevice(ctx context.Context, vehicleID string) (_ string, err error) {
	defer obs.Time(ctx, "geotab.LookupDevice")(&err)

	if vehicleID == "" {
		return "", fmt.Errorf("lookup device: vehicle id must be non-empty")
	}

	// Check the persistent device cache before calling the API.
	if g.devices != nil {
		id, ok, err := g.devices.Get(ctx, vehicleID)
		if err != nil {
			log.Printf("device cache read failed vehicle=%s err=%v", vehicleID, err)
		} else if ok {
			return id, nil
		}
	}

	var devices []entityRef
	err = g.call(ctx, "Get", map[string]any{
		"typeName": "Device",
		"search":   map[string]any{"name": vehicleID},
	}, &devices)
	if err != nil {
		return "", fmt.Errorf("lookup device %q: %w: %w", vehicleID, domain.ErrSourceUnavailable, err)
	}
	if len(devices) == 0 || devices[0].ID == "" {
		return "", fmt.Errorf("lookup device %q: %w", vehicleID, domain.ErrNotFound)
	}

	id := devices[0].ID
	if g.devices != nil {
		if err := g.devices.Put(ctx, vehicleID, id); err != nil {
			log.Printf("device cache write failed vehicle=%s err=%v", vehicleID, err)
		}
	}

	return id, nil
}

func (g *GeotabClient) ListLogRecords(ctx context.Context, deviceID string, from, to time.Time) (_ []domain.RawTracePoint, err error) {
	defer obs.Time(ctx, "geotab.ListLogRecords")(&err)

	var records []logRecord
	err = g.call(ctx, "Get", map[string]any{
		"typeName": "LogRecord",
		"search":   windowSearch(deviceID, from, to),
	}, &records)
	if err != nil {
		return nil, fmt.Errorf("list log records device=%s: %w: %w", deviceID, domain.ErrSourceUnavailable, err)
	}

	out := make([]domain.RawTracePoint, 0, len(records))
	for _, r := range records {
		out = append(out, domain.RawTracePoint{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			DateTime:  r.DateTime,
			Speed:     r.Speed,
		})
	}

	return out, nil
}

func (g *GeotabClient) ListExceptions(ctx context.Context, deviceID string, from, to time.Time) (_ []domain.RawException, err error) {
	defer obs.Time(ctx, "geotab.ListExceptions")(&err)

	var events []exceptionEvent
	err = g.call(ctx, "Get", map[string]any{
		"typeName": "ExceptionEvent",
		"search":   windowSearch(deviceID, from, to),
	}, &events)
	if err != nil {
		return nil, fmt.Errorf("list exceptions device=%s: %w: %w", deviceID, domain.ErrSourceUnavailable, err)
	}

	names, err := g.ruleNames(ctx)
	if err != nil {
		// Events are still usable with rule ids as names.
		log.Printf("rule names unavailable err=%v", err)
	}

	out := make([]domain.RawException, 0, len(events))
	for _, e := range events {
		name := names[e.Rule.ID]
		if name == "" {
			name = e.Rule.ID
		}

		raw := domain.RawException{
			DeviceID: e.Device.ID,
			Rule:     name,
			Start:    e.ActiveFrom,
			End:      e.ActiveTo,
		}
		if secs, ok := parseDuration(e.Duration); ok {
			raw.Duration = secs
		}
		out = append(out, raw)
	}

	return out, nil
}

// ruleNames returns the rule id -> name table, fetched once per client.
func (g *GeotabClient) ruleNames(ctx context.Context) (map[string]string, error) {
	g.mu.Lock()
	cached := g.rules
	g.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var rules []rule
	if err := g.call(ctx, "Get", map[string]any{"typeName": "Rule"}, &rules); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	names := make(map[string]string, len(rules))
	for _, r := range rules {
		names[r.ID] = r.Name
	}

	g.mu.Lock()
	g.rules = names
	g.mu.Unlock()

	return names, nil
}

// parseDuration converts a Geotab TimeSpan ("hh:mm:ss", "d.hh:mm:ss",
// optional fractional seconds) to seconds.
func parseDuration(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	var days float64
	clock := s
	if dot := strings.Index(s, "."); dot >= 0 && dot < strings.Index(s, ":") {
		d, err := strconv.Atoi(s[:dot])
		if err != nil {
			return 0, false
		}
		days = float64(d)
		clock = s[dot+1:]
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}

	return days*86400 + float64(h)*3600 + float64(m)*60 + sec, true
}
