package services

import (
	"fmt"
	"strings"
	"time"

	"school-bus-trip-service/internal/domain"

	"github.com/araddon/dateparse"
)

// Scheduling sheet column names.
const (
	colRoute          = "Route"
	colCurrentDate    = "Date"
	colHistoricalDate = "DateID"
	colTripType       = "Trip Type"
	colVehicle        = "Vehicle#"
	colDriverName     = "Name"
	colDriverPhone    = "Phone"
)

// Yard columns in order of preference.
var yardColumns = []string{"Assigned Pullout Yard", "GM | Yard"}

// Spreadsheet placeholders that mean "empty cell".
var emptyCells = map[string]struct{}{
	"none": {},
	"#n/a": {},
	"nan":  {},
	"nat":  {},
}

// dateColumn returns the column holding the date key for a snapshot kind.
func dateColumn(kind domain.SnapshotKind) string {
	if kind == domain.SnapshotHistorical {
		return colHistoricalDate
	}
	return colCurrentDate
}

// DecodeSchedule maps a raw scheduling table onto typed rows.
// Column presence is probed once: a missing date or route column yields a
// snapshot with SchemaErr set and no rows, plus the same error as return value.
// Missing optional columns only add warnings.
func DecodeSchedule(kind domain.SnapshotKind, table domain.Table, fetchedAt time.Time) (domain.ScheduleSnapshot, error) {
	snap := domain.ScheduleSnapshot{Kind: kind, FetchedAt: fetchedAt}

	if len(table.Header) == 0 {
		err := fmt.Errorf("decode %s schedule: no header row: %w", kind, domain.ErrSourceUnavailable)
		snap.SchemaErr = err
		return snap, err
	}

	dateName := dateColumn(kind)
	dateIdx := table.Column(dateName)
	routeIdx := table.Column(colRoute)

	var missing []string
	if dateIdx < 0 {
		missing = append(missing, dateName)
	}
	if routeIdx < 0 {
		missing = append(missing, colRoute)
	}
	if len(missing) > 0 {
		err := &domain.SchemaMismatchError{Source: string(kind) + " schedule", Missing: missing}
		snap.SchemaErr = err
		return snap, err
	}

	tripIdx := table.Column(colTripType)
	vehicleIdx := table.Column(colVehicle)
	nameIdx := table.Column(colDriverName)
	phoneIdx := table.Column(colDriverPhone)
	yardIdx := -1
	for _, c := range yardColumns {
		if yardIdx = table.Column(c); yardIdx >= 0 {
			break
		}
	}

	if tripIdx < 0 || vehicleIdx < 0 {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("%s schedule: %q or %q column missing, no vehicles can be assigned", kind, colTripType, colVehicle))
	}
	if nameIdx < 0 || phoneIdx < 0 {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("%s schedule: driver %q/%q columns missing", kind, colDriverName, colDriverPhone))
	}
	if yardIdx < 0 {
		snap.Warnings = append(snap.Warnings,
			fmt.Sprintf("%s schedule: no yard column (%s)", kind, strings.Join(yardColumns, " or ")))
	}

	cell := func(row []string, idx int) string {
		v := table.Cell(row, idx)
		if _, ok := emptyCells[strings.ToLower(v)]; ok {
			return ""
		}
		return v
	}

	snap.Rows = make([]domain.ScheduleRow, 0, len(table.Rows))
	for _, raw := range table.Rows {
		route := cell(raw, routeIdx)
		if route == "" {
			if !blankRow(raw) {
				snap.Malformed++
			}
			continue
		}

		trip := strings.ToUpper(cell(raw, tripIdx))
		row := domain.ScheduleRow{
			Route:       route,
			TripType:    trip,
			VehicleRaw:  cell(raw, vehicleIdx),
			DriverName:  cell(raw, nameIdx),
			DriverPhone: cell(raw, phoneIdx),
			Yard:        cell(raw, yardIdx),
			DateKey:     cell(raw, dateIdx),
		}
		if s, err := domain.ParseSession(trip); err == nil {
			row.Session = s
		}

		if kind == domain.SnapshotHistorical && row.DateKey != "" {
			if d, ok := parseCalendarDate(row.DateKey); ok {
				row.Date, row.HasDate = d, true
				snap.DatesParsed = true
			}
		}

		snap.Rows = append(snap.Rows, row)
	}

	return snap, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseCalendarDate reads the wall-clock date of a date-like string, ignoring time of day.
func parseCalendarDate(s string) (time.Time, bool) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return civilDate(t), true
}

// civilDate drops the time of day, keeping the date as observed in t's own location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
