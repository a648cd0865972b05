package services

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"school-bus-trip-service/internal/domain"

	"github.com/google/uuid"
)

// Namespace for school stop keys; keys are stable for a given dump row.
var schoolStopNamespace = uuid.MustParse("5f1d3a52-8a0e-4b8b-9d5c-2f6f1c8e7a10")

// Sentinel substrings marking administrative (non-stop) rows.
const (
	handledElsewhere = "SEE OPERATIONS"
	dismissal        = "DISMISS"
	arriveMarker     = "ARRIVE"
)

// ExtractStops builds per-route stop sets for both sessions and joins each
// route to its vehicle. Routes without a vehicle for a session are dropped
// from that session and listed in DroppedRoutes.
func ExtractStops(dump domain.OptDump, amVehicles, pmVehicles map[string]string) domain.StopExtraction {
	out := domain.StopExtraction{DroppedRoutes: map[domain.Session][]string{}}

	for _, session := range domain.Sessions {
		vehicles := amVehicles
		if session == domain.SessionPM {
			vehicles = pmVehicles
		}

		sets, dropped := extractSession(dump, session, vehicles)
		if session == domain.SessionAM {
			out.AM = sets
		} else {
			out.PM = sets
		}
		if len(dropped) > 0 {
			out.DroppedRoutes[session] = dropped
		}
	}

	return out
}

func extractSession(dump domain.OptDump, session domain.Session, vehicles map[string]string) ([]domain.RouteStopSet, []string) {
	rows := make([]domain.OptRow, 0, len(dump.Rows))
	for _, r := range dump.Rows {
		if !r.Applicability.Includes(session) {
			continue
		}
		if strings.Contains(strings.ToUpper(r.Address), handledElsewhere) {
			continue
		}
		if strings.Contains(strings.ToUpper(r.School), dismissal) {
			continue
		}
		rows = append(rows, r)
	}

	slices.SortStableFunc(rows, func(a, b domain.OptRow) int {
		return cmp.Or(
			cmp.Compare(a.Route, b.Route),
			cmp.Compare(a.Sequence, b.Sequence),
			cmp.Compare(a.PupilID, b.PupilID),
		)
	})

	if dump.HasPupilID || dump.HasSchool {
		rows = dedupeOptRows(rows)
	}

	var (
		sets    []domain.RouteStopSet
		dropped []string
	)
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].Route == rows[start].Route {
			end++
		}
		route := rows[start].Route

		vehicle := vehicles[route]
		if vehicle == "" {
			dropped = append(dropped, route)
		} else {
			sets = append(sets, domain.RouteStopSet{
				Route:     route,
				Session:   session,
				VehicleID: vehicle,
				Stops:     buildStops(rows[start:end]),
			})
		}
		start = end
	}

	return sets, dropped
}

// dedupeOptRows keeps the first row per (route, pupil, school); rows must already be sorted.
func dedupeOptRows(rows []domain.OptRow) []domain.OptRow {
	seen := make(map[[3]string]struct{}, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		k := [3]string{r.Route, r.PupilID, r.School}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// buildStops turns one route's rows into school stops (by session begin)
// followed by pickups (by sequence). Pickups sharing a sequence merge.
func buildStops(rows []domain.OptRow) []domain.Stop {
	var schools []domain.OptRow
	var pickups []domain.PickupStop
	bySeq := map[int]int{}

	for _, r := range rows {
		if r.Sequence == 0 {
			schools = append(schools, r)
			continue
		}

		if i, ok := bySeq[r.Sequence]; ok {
			if r.PupilID != "" && !slices.Contains(pickups[i].PupilIDs, r.PupilID) {
				pickups[i].PupilIDs = append(pickups[i].PupilIDs, r.PupilID)
			}
			continue
		}

		p := domain.PickupStop{Sequence: r.Sequence, Coordinates: r.Coordinates}
		if r.PupilID != "" {
			p.PupilIDs = []string{r.PupilID}
		}
		bySeq[r.Sequence] = len(pickups)
		pickups = append(pickups, p)
	}

	slices.SortStableFunc(schools, func(a, b domain.OptRow) int {
		return cmp.Or(cmp.Compare(a.SessionBegin, b.SessionBegin), cmp.Compare(a.Index, b.Index))
	})

	stops := make([]domain.Stop, 0, len(schools)+len(pickups))
	for _, r := range schools {
		stops = append(stops, domain.SchoolStop{
			UniqueKey:    schoolStopKey(r),
			Coordinates:  r.Coordinates,
			SchoolName:   cleanSchoolName(r.School),
			SessionBegin: r.SessionBegin,
		})
	}
	for _, p := range pickups {
		stops = append(stops, p)
	}
	return stops
}

func schoolStopKey(r domain.OptRow) string {
	name := r.Route + "|" + strconv.Itoa(r.Index) + "|" + r.School
	return uuid.NewSHA1(schoolStopNamespace, []byte(name)).String()
}

func cleanSchoolName(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, arriveMarker, "")), " ")
}
