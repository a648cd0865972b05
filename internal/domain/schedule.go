package domain

import "time"

// SnapshotKind selects one of the two scheduling sources.
type SnapshotKind string

const (
	// SnapshotCurrent is the week sheet keyed by "Weekday-D" date labels.
	SnapshotCurrent SnapshotKind = "current"
	// SnapshotHistorical is the archive keyed by literal date strings.
	SnapshotHistorical SnapshotKind = "historical"
)

// One assignment record from a scheduling snapshot.
// Rows are decoded once per snapshot and never mutated afterwards.
// Session is empty when the trip type is neither AM nor PM.
type ScheduleRow struct {
	Route       string
	TripType    string
	Session     Session
	VehicleRaw  string
	DriverName  string
	DriverPhone string
	Yard        string

	// DateKey is the raw value of the source's date column.
	DateKey string
	// Date is set when DateKey parsed as a calendar date (historical source only).
	Date    time.Time
	HasDate bool
}

// ScheduleSnapshot is a decoded scheduling source held by the snapshot cache.
// SchemaErr is non-nil when a required column was missing; Rows is then empty.
type ScheduleSnapshot struct {
	Kind      SnapshotKind
	Rows      []ScheduleRow
	FetchedAt time.Time

	// DatesParsed reports whether any row's date column parsed as a date.
	DatesParsed bool
	// Malformed counts rows skipped while decoding.
	Malformed int
	Warnings  []string
	SchemaErr error
}

// Clone returns a copy that shares no slices with s.
func (s ScheduleSnapshot) Clone() ScheduleSnapshot {
	out := s
	out.Rows = append([]ScheduleRow(nil), s.Rows...)
	out.Warnings = append([]string(nil), s.Warnings...)
	return out
}

// Depot is a bus yard with a fixed location.
type Depot struct {
	Name        string
	Coordinates Coordinates
}

// Schedule is the resolved assignment for one route on one date.
// Vehicle maps are keyed by route and hold canonical vehicle ids.
type Schedule struct {
	Source      SnapshotKind
	AMVehicles  map[string]string
	PMVehicles  map[string]string
	DriverName  string
	DriverPhone string
	MatchedRows []ScheduleRow
	Depot       *Depot
}

// Vehicles returns the route -> vehicle map for a session.
func (s Schedule) Vehicles(session Session) map[string]string {
	if session == SessionPM {
		return s.PMVehicles
	}
	return s.AMVehicles
}
