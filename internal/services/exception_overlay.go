package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/platform/obs"
	"school-bus-trip-service/internal/ports"
)

// ExceptionOverlayService builds the safety overlay for one vehicle and day.
type ExceptionOverlayService struct {
	Telemetry   ports.TelemetryProvider
	FleetPrefix string
}

// ExceptionOverlayRequest selects a vehicle, a date and optionally one session.
// An empty Session covers the whole operating day.
type ExceptionOverlayRequest struct {
	Vehicle string
	Date    time.Time
	Session domain.Session
}

type ExceptionOverlay struct {
	VehicleID string
	DeviceID  string
	From      time.Time
	To        time.Time
	// DroppedPoints counts telemetry records that failed validation.
	DroppedPoints int
	Annotation    domain.Annotation
}

// Build returns an error only for an unusable request. Collaborator failures
// are reported on the result.
func (s *ExceptionOverlayService) Build(ctx context.Context, req ExceptionOverlayRequest) (_ domain.Result[ExceptionOverlay], err error) {
	defer obs.Time(ctx, "exception_overlay.Build")(&err)

	vehicle, ok := NormalizeVehicleID(req.Vehicle, s.FleetPrefix)
	if !ok {
		return domain.Result[ExceptionOverlay]{}, fmt.Errorf("build exception overlay: invalid vehicle %q", req.Vehicle)
	}
	if req.Date.IsZero() {
		return domain.Result[ExceptionOverlay]{}, errors.New("build exception overlay: date must be set")
	}

	out := ExceptionOverlay{VehicleID: vehicle}
	if req.Session == "" {
		out.From, out.To = DayWindow(req.Date)
	} else {
		out.From, out.To = SessionWindow(req.Date, req.Session)
	}

	deviceID, err := s.Telemetry.LookupDevice(ctx, vehicle)
	if err != nil {
		log.Printf("device lookup failed vehicle=%s err=%v", vehicle, err)
		return domain.Unavailable(out, "telemetry device unavailable: "+err.Error()), nil
	}
	out.DeviceID = deviceID

	var (
		wg                  sync.WaitGroup
		raw                 []domain.RawTracePoint
		rawExceptions       []domain.RawException
		logErr, exceptErr   error
		exceptionsSupported bool
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		raw, logErr = s.Telemetry.ListLogRecords(ctx, deviceID, out.From, out.To)
	}()

	if ep, ok := s.Telemetry.(ports.ExceptionProvider); ok {
		exceptionsSupported = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			rawExceptions, exceptErr = ep.ListExceptions(ctx, deviceID, out.From, out.To)
		}()
	}

	wg.Wait()

	var warnings []string
	switch {
	case !exceptionsSupported:
		warnings = append(warnings, "exception events not supported by telemetry source")
	case exceptErr != nil:
		log.Printf("exception events unavailable device=%s err=%v", deviceID, exceptErr)
		warnings = append(warnings, "exception events unavailable: "+exceptErr.Error())
		rawExceptions = nil
	}

	var points []domain.TracePoint
	if logErr != nil {
		log.Printf("gps trace unavailable device=%s err=%v", deviceID, logErr)
		warnings = append(warnings, "gps trace unavailable: "+logErr.Error())
		raw = nil
	} else {
		trace := FormatTrace(raw)
		if trace.Dropped > 0 {
			obs.MalformedRows.WithLabelValues("telemetry").Add(float64(trace.Dropped))
			warnings = append(warnings, fmt.Sprintf("gps: %d malformed points dropped", trace.Dropped))
		}
		out.DroppedPoints = trace.Dropped
		points = withinWindow(trace.Points, out.From, out.To)
	}

	out.Annotation = Annotate(points, rawExceptions)
	if out.Annotation.Discarded > 0 {
		obs.MalformedRows.WithLabelValues("exceptions").Add(float64(out.Annotation.Discarded))
		warnings = append(warnings, fmt.Sprintf("exceptions: %d records with bad bounds discarded", out.Annotation.Discarded))
	}

	return domain.Degraded(out, warnings...), nil
}
