package services

import (
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"
	"time"

	"school-bus-trip-service/internal/domain"
)

// SnapshotReader returns a private copy of a cached schedule snapshot.
type SnapshotReader interface {
	Get(kind domain.SnapshotKind) (domain.ScheduleSnapshot, bool)
}

// DuplicatePolicy decides which vehicle a route keeps when several rows
// for the same route, date and session name different vehicles.
type DuplicatePolicy int

const (
	// FirstVehicleWins keeps the vehicle of the earliest matching row.
	FirstVehicleWins DuplicatePolicy = iota
	// LastVehicleWins keeps the vehicle of the latest matching row.
	LastVehicleWins
)

func (p DuplicatePolicy) String() string {
	if p == LastVehicleWins {
		return "last-wins"
	}
	return "first-wins"
}

// ScheduleResolver finds the scheduling rows for a route and date and extracts
// vehicle assignments, driver identity and depot from them.
type ScheduleResolver struct {
	Snapshots   SnapshotReader
	FleetPrefix string
	Depots      []domain.Depot
	Policy      DuplicatePolicy
	// Location decides where "this week" starts. Defaults to UTC.
	Location *time.Location
	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// CurrentWeekKey formats a date the way the week sheet labels days, e.g. "Tuesday-22".
func CurrentWeekKey(date time.Time) string {
	return date.Weekday().String() + "-" + strconv.Itoa(date.Day())
}

// HistoricalKey formats a date as the archive's literal MM/DD/YYYY form.
func HistoricalKey(date time.Time) string {
	return date.Format("01/02/2006")
}

// MostRecentMonday returns the Monday on or before t, as a civil date.
func MostRecentMonday(t time.Time) time.Time {
	d := civilDate(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// SourceFor picks the snapshot for a date: dates on or after this week's
// Monday use the current sheet, everything earlier the archive.
func (r *ScheduleResolver) SourceFor(date time.Time) domain.SnapshotKind {
	monday := MostRecentMonday(r.now().In(r.location()))
	if civilDate(date).Before(monday) {
		return domain.SnapshotHistorical
	}
	return domain.SnapshotCurrent
}

// Resolve returns the schedule for route on date. It never fails: a missing
// snapshot or schema problem yields an Unavailable result with empty maps,
// data problems yield a Degraded result with warnings.
func (r *ScheduleResolver) Resolve(route string, date time.Time) domain.Result[domain.Schedule] {
	route = strings.TrimSpace(route)
	kind := r.SourceFor(date)

	out := domain.Schedule{
		Source:     kind,
		AMVehicles: map[string]string{},
		PMVehicles: map[string]string{},
	}

	if r.Snapshots == nil {
		return domain.Unavailable(out, "schedule resolver: no snapshot reader configured")
	}

	snap, ok := r.Snapshots.Get(kind)
	if !ok {
		log.Printf("resolve schedule: snapshot not loaded kind=%s route=%s", kind, route)
		return domain.Unavailable(out, fmt.Sprintf("%s schedule snapshot not loaded", kind))
	}
	if snap.SchemaErr != nil {
		log.Printf("resolve schedule: kind=%s route=%s err=%v", kind, route, snap.SchemaErr)
		return domain.Unavailable(out, snap.SchemaErr.Error())
	}

	warnings := append([]string(nil), snap.Warnings...)

	matched := r.matchRows(snap, route, date)
	out.MatchedRows = matched
	if len(matched) == 0 {
		warnings = append(warnings, fmt.Sprintf(
			"no %s schedule rows for route=%s date=%s", kind, route, date.Format(time.DateOnly),
		))
		return domain.Degraded(out, warnings...)
	}

	for _, amb := range r.assignVehicles(&out, matched) {
		log.Printf("resolve schedule: %v policy=%s", amb, r.Policy)
		warnings = append(warnings, amb.Error())
	}

	// Name and phone come from the same row: the first one naming a driver.
	for _, row := range matched {
		if row.DriverName != "" || row.DriverPhone != "" {
			out.DriverName, out.DriverPhone = row.DriverName, row.DriverPhone
			break
		}
	}

	out.Depot = r.matchDepot(matched)

	return domain.Degraded(out, warnings...)
}

func (r *ScheduleResolver) matchRows(snap domain.ScheduleSnapshot, route string, date time.Time) []domain.ScheduleRow {
	var match func(domain.ScheduleRow) bool

	switch {
	case snap.Kind == domain.SnapshotCurrent:
		key := CurrentWeekKey(date)
		match = func(row domain.ScheduleRow) bool { return row.DateKey == key }
	case snap.DatesParsed:
		day := civilDate(date)
		match = func(row domain.ScheduleRow) bool { return row.HasDate && row.Date.Equal(day) }
	default:
		key := HistoricalKey(date)
		match = func(row domain.ScheduleRow) bool { return row.DateKey == key }
	}

	var out []domain.ScheduleRow
	for _, row := range snap.Rows {
		if row.Route == route && match(row) {
			out = append(out, row)
		}
	}
	return out
}

// assignVehicles fills the session maps and reports every route/session whose
// rows disagree on the vehicle.
func (r *ScheduleResolver) assignVehicles(out *domain.Schedule, rows []domain.ScheduleRow) []*domain.AmbiguousMatchError {
	type slot struct {
		route   string
		session domain.Session
	}
	seen := map[slot][]string{}
	var order []slot

	for _, row := range rows {
		if row.Session == "" {
			continue
		}
		id, ok := NormalizeVehicleID(row.VehicleRaw, r.FleetPrefix)
		if !ok {
			continue
		}

		m := out.Vehicles(row.Session)
		k := slot{route: row.Route, session: row.Session}
		if _, exists := m[row.Route]; !exists || r.Policy == LastVehicleWins {
			m[row.Route] = id
		}

		if _, ok := seen[k]; !ok {
			order = append(order, k)
		}
		if !slices.Contains(seen[k], id) {
			seen[k] = append(seen[k], id)
		}
	}

	var ambiguous []*domain.AmbiguousMatchError
	for _, k := range order {
		if ids := seen[k]; len(ids) > 1 {
			ambiguous = append(ambiguous, &domain.AmbiguousMatchError{
				Route:    k.route,
				Session:  k.session,
				Vehicles: ids,
				Kept:     out.Vehicles(k.session)[k.route],
			})
		}
	}
	return ambiguous
}

// matchDepot checks the first non-empty yard label against depot names (case-insensitive substring).
func (r *ScheduleResolver) matchDepot(rows []domain.ScheduleRow) *domain.Depot {
	for _, row := range rows {
		if row.Yard == "" {
			continue
		}
		yard := strings.ToLower(row.Yard)
		for _, d := range r.Depots {
			if d.Name != "" && strings.Contains(yard, strings.ToLower(d.Name)) {
				depot := d
				return &depot
			}
		}
		return nil
	}
	return nil
}

func (r *ScheduleResolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *ScheduleResolver) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}
