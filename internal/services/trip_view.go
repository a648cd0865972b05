package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/platform/obs"
	"school-bus-trip-service/internal/ports"
)

// TripViewService assembles the schedule, stops, GPS traces and inspection
// link for one route on one date. Every part degrades on its own: a failed
// collaborator shrinks the view instead of failing the request.
type TripViewService struct {
	Resolver  *ScheduleResolver
	Opt       ports.OptRepository
	Telemetry ports.TelemetryProvider
	// DVI is optional.
	DVI ports.DVIFinder
}

type TripViewRequest struct {
	Route string
	Date  time.Time
}

// SessionView is one session's vehicle, stop list and trace.
type SessionView struct {
	Session   domain.Session
	VehicleID string
	DeviceID  string
	Stops     domain.RouteStopSet
	Trace     domain.Trace
	Summary   domain.TraceSummary
}

type TripView struct {
	Route    string
	Date     time.Time
	Schedule domain.Result[domain.Schedule]
	// Opt echoes the raw OPT rows with session times rendered as HH:MM:SS.
	Opt      domain.Result[[]map[string]string]
	Sessions map[domain.Session]domain.Result[SessionView]
	DVILink  domain.Result[string]
}

func (s *TripViewService) Build(ctx context.Context, req TripViewRequest) (_ *TripView, err error) {
	defer obs.Time(ctx, "trip_view.Build")(&err)

	route := strings.TrimSpace(req.Route)
	if route == "" {
		return nil, errors.New("build trip view: route must be non-empty")
	}
	if req.Date.IsZero() {
		return nil, errors.New("build trip view: date must be set")
	}

	view := &TripView{
		Route:    route,
		Date:     civilDate(req.Date),
		Sessions: make(map[domain.Session]domain.Result[SessionView], len(domain.Sessions)),
	}

	view.Schedule = s.Resolver.Resolve(route, req.Date)
	for _, w := range view.Schedule.Messages() {
		log.Printf("schedule warning route=%s date=%s msg=%q", route, view.Date.Format(time.DateOnly), w)
	}
	sched := view.Schedule.Value

	var extraction domain.StopExtraction
	view.Opt, extraction = s.loadStops(ctx, route, req.Date, sched)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, session := range domain.Sessions {
		wg.Add(1)
		go func(session domain.Session) {
			defer wg.Done()
			res := s.buildSession(ctx, route, view.Date, session, sched, extraction)

			mu.Lock()
			view.Sessions[session] = res
			mu.Unlock()
		}(session)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		view.DVILink = s.findInspection(ctx, route, view.Date, sched.Depot)
	}()

	wg.Wait()

	return view, nil
}

func (s *TripViewService) loadStops(
	ctx context.Context,
	route string,
	date time.Time,
	sched domain.Schedule,
) (domain.Result[[]map[string]string], domain.StopExtraction) {
	table, err := s.Opt.ListRouteRows(ctx, route, date)
	if err != nil {
		log.Printf("opt rows unavailable route=%s err=%v", route, err)
		return domain.Unavailable[[]map[string]string](nil, "opt dump unavailable: "+err.Error()), domain.StopExtraction{}
	}

	dump, err := DecodeOpt(table)
	if err != nil {
		log.Printf("opt rows rejected route=%s err=%v", route, err)
		return domain.Unavailable[[]map[string]string](nil, err.Error()), domain.StopExtraction{}
	}

	warnings := append([]string(nil), dump.Warnings...)
	if dump.Malformed > 0 {
		obs.MalformedRows.WithLabelValues("opt").Add(float64(dump.Malformed))
		warnings = append(warnings, fmt.Sprintf("opt dump: %d malformed rows skipped", dump.Malformed))
	}

	extraction := ExtractStops(dump, sched.AMVehicles, sched.PMVehicles)
	for session, routes := range extraction.DroppedRoutes {
		log.Printf("stops dropped session=%s routes=%v reason=no_vehicle", session, routes)
	}

	return domain.Degraded(optRecords(table), warnings...), extraction
}

func optRecords(table domain.Table) []map[string]string {
	recs := table.Records()
	for _, rec := range recs {
		for _, col := range []string{optSessionBegin, optSessionEnd} {
			if v, ok := rec[col]; ok {
				rec[col] = normalizeClock(strings.TrimSpace(v))
			}
		}
	}
	return recs
}

func (s *TripViewService) buildSession(
	ctx context.Context,
	route string,
	date time.Time,
	session domain.Session,
	sched domain.Schedule,
	extraction domain.StopExtraction,
) domain.Result[SessionView] {
	view := SessionView{
		Session: session,
		Stops:   domain.RouteStopSet{Route: route, Session: session},
	}

	vehicle := sched.Vehicles(session)[route]
	if vehicle == "" {
		return domain.Unavailable(view, fmt.Sprintf("no %s vehicle assigned", session))
	}
	view.VehicleID = vehicle
	view.Stops.VehicleID = vehicle

	var warnings []string
	for _, set := range extraction.Sets(session) {
		if set.Route == route {
			view.Stops = set
		}
	}
	if len(view.Stops.Stops) == 0 {
		warnings = append(warnings, fmt.Sprintf("no %s stops", session))
	}

	deviceID, err := s.Telemetry.LookupDevice(ctx, vehicle)
	if err != nil {
		log.Printf("device lookup failed vehicle=%s err=%v", vehicle, err)
		return domain.Degraded(view, append(warnings, "telemetry device unavailable: "+err.Error())...)
	}
	view.DeviceID = deviceID

	from, to := SessionWindow(date, session)
	raw, err := s.Telemetry.ListLogRecords(ctx, deviceID, from, to)
	if err != nil {
		log.Printf("gps trace unavailable device=%s session=%s err=%v", deviceID, session, err)
		return domain.Degraded(view, append(warnings, "gps trace unavailable: "+err.Error())...)
	}

	trace := FormatTrace(raw)
	if trace.Dropped > 0 {
		obs.MalformedRows.WithLabelValues("telemetry").Add(float64(trace.Dropped))
		warnings = append(warnings, fmt.Sprintf("gps: %d malformed points dropped", trace.Dropped))
	}
	trace.Points = withinWindow(trace.Points, from, to)

	view.Trace = trace
	view.Summary = SummarizeTrace(trace.Points)

	return domain.Degraded(view, warnings...)
}

func (s *TripViewService) findInspection(ctx context.Context, route string, date time.Time, depot *domain.Depot) domain.Result[string] {
	if s.DVI == nil {
		return domain.Unavailable("", "inspection lookup disabled")
	}
	if depot == nil {
		return domain.Unavailable("", "no depot for route")
	}

	link, err := s.DVI.FindInspection(ctx, depot.Name, route, date)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Unavailable("", "no inspection file found")
	}
	if err != nil {
		log.Printf("inspection lookup failed depot=%s route=%s err=%v", depot.Name, route, err)
		return domain.Unavailable("", "inspection lookup failed: "+err.Error())
	}

	return domain.Ok(link)
}
