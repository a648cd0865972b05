package domain

import "strconv"

// StopKind distinguishes pupil pickups from school arrivals.
type StopKind string

const (
	StopPickup StopKind = "pickup"
	StopSchool StopKind = "school"
)

// Applicability marks which sessions an OPT row belongs to.
type Applicability int

const (
	BothSessions Applicability = iota
	AMOnly
	PMOnly
)

// Includes reports whether a row with this applicability belongs to the session.
func (a Applicability) Includes(s Session) bool {
	switch a {
	case AMOnly:
		return s == SessionAM
	case PMOnly:
		return s == SessionPM
	default:
		return true
	}
}

// One decoded row of the optimization dump. Index is the row's position in
// the dump and is stable for the lifetime of the dump.
type OptRow struct {
	Index         int
	Route         string
	Applicability Applicability
	Address       string
	School        string
	PupilID       string
	Coordinates   Coordinates
	Sequence      int
	SessionBegin  string
	SessionEnd    string
}

// OptDump is the decoded optimization dump for one route/date query.
// The Has* flags record which optional columns were present.
type OptDump struct {
	Rows       []OptRow
	HasPupilID bool
	HasSchool  bool
	HasAddress bool
	HasAmPm    bool
	Malformed  int
	Warnings   []string
}

// Stop is either a PickupStop or a SchoolStop.
type Stop interface {
	Kind() StopKind
	// Key identifies the stop within its RouteStopSet.
	Key() string
	Position() Coordinates
}

// A pupil pickup, keyed by its sequence number on the route.
// PupilIDs lists every pupil collected at this sequence.
type PickupStop struct {
	Sequence    int
	Coordinates Coordinates
	PupilIDs    []string
}

func (PickupStop) Kind() StopKind          { return StopPickup }
func (p PickupStop) Key() string           { return strconv.Itoa(p.Sequence) }
func (p PickupStop) Position() Coordinates { return p.Coordinates }

// A school arrival. Several can exist per route, so each carries a row-unique key.
type SchoolStop struct {
	UniqueKey    string
	Coordinates  Coordinates
	SchoolName   string
	SessionBegin string
}

func (SchoolStop) Kind() StopKind          { return StopSchool }
func (s SchoolStop) Key() string           { return s.UniqueKey }
func (s SchoolStop) Position() Coordinates { return s.Coordinates }

// RouteStopSet is the ordered stop list for one route and session:
// school arrivals first (by session begin), then pickups by sequence.
type RouteStopSet struct {
	Route     string
	Session   Session
	VehicleID string
	Stops     []Stop
}

// Lookup finds a stop by key.
func (r RouteStopSet) Lookup(key string) (Stop, bool) {
	for _, s := range r.Stops {
		if s.Key() == key {
			return s, true
		}
	}
	return nil, false
}

// Pickups returns only the pickup stops, in order.
func (r RouteStopSet) Pickups() []PickupStop {
	var out []PickupStop
	for _, s := range r.Stops {
		if p, ok := s.(PickupStop); ok {
			out = append(out, p)
		}
	}
	return out
}

// Schools returns only the school stops, in order.
func (r RouteStopSet) Schools() []SchoolStop {
	var out []SchoolStop
	for _, s := range r.Stops {
		if sc, ok := s.(SchoolStop); ok {
			out = append(out, sc)
		}
	}
	return out
}

// StopExtraction is the per-session output of stop extraction.
// DroppedRoutes lists routes with stops but no assigned vehicle.
type StopExtraction struct {
	AM            []RouteStopSet
	PM            []RouteStopSet
	DroppedRoutes map[Session][]string
}

// Sets returns the stop sets for a session.
func (e StopExtraction) Sets(s Session) []RouteStopSet {
	if s == SessionPM {
		return e.PM
	}
	return e.AM
}
