package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"school-bus-trip-service/internal/domain"
)

// OPT dump column names.
const (
	optRoute        = "route"
	optAmPm         = "am_pm"
	optAddress      = "address"
	optSchool       = "School_Code_&_Name"
	optLat          = "pupil_lat"
	optLon          = "pupil_lon"
	optSessionBegin = "sess_beg"
	optSessionEnd   = "sess_end"
	optSequence     = "seg_no"
	optPupilID      = "pupil_id_no"
)

// DecodeOpt maps a raw OPT table onto typed rows. Rows with a missing route,
// unparseable coordinates or sequence are skipped and counted in Malformed.
// An empty table decodes to an empty dump. Missing required columns return a
// *domain.SchemaMismatchError; missing optional columns only add warnings.
func DecodeOpt(table domain.Table) (domain.OptDump, error) {
	var dump domain.OptDump

	if len(table.Header) == 0 {
		if len(table.Rows) == 0 {
			return dump, nil
		}
		return dump, fmt.Errorf("decode opt dump: rows without header: %w", domain.ErrSourceUnavailable)
	}

	idx := map[string]int{}
	for _, c := range []string{optRoute, optAmPm, optAddress, optSchool, optLat, optLon, optSessionBegin, optSessionEnd, optSequence, optPupilID} {
		idx[c] = table.Column(c)
	}

	var missing []string
	for _, c := range []string{optRoute, optLat, optLon, optSequence} {
		if idx[c] < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return dump, &domain.SchemaMismatchError{Source: "opt dump", Missing: missing}
	}

	dump.HasAmPm = idx[optAmPm] >= 0
	dump.HasAddress = idx[optAddress] >= 0
	dump.HasSchool = idx[optSchool] >= 0
	dump.HasPupilID = idx[optPupilID] >= 0
	for _, c := range []string{optAmPm, optAddress, optSchool, optPupilID, optSessionBegin} {
		if idx[c] < 0 {
			dump.Warnings = append(dump.Warnings, fmt.Sprintf("opt dump: column %q missing", c))
		}
	}

	dump.Rows = make([]domain.OptRow, 0, len(table.Rows))
	for i, raw := range table.Rows {
		route := table.Cell(raw, idx[optRoute])
		lat, latErr := parseFloat(table.Cell(raw, idx[optLat]))
		lon, lonErr := parseFloat(table.Cell(raw, idx[optLon]))
		seq, seqErr := parseSequence(table.Cell(raw, idx[optSequence]))

		coords := domain.Coordinates{Lon: lon, Lat: lat}
		if route == "" || latErr != nil || lonErr != nil || seqErr != nil || !coords.Valid() {
			dump.Malformed++
			continue
		}

		dump.Rows = append(dump.Rows, domain.OptRow{
			Index:         i,
			Route:         route,
			Applicability: parseApplicability(table.Cell(raw, idx[optAmPm])),
			Address:       table.Cell(raw, idx[optAddress]),
			School:        table.Cell(raw, idx[optSchool]),
			PupilID:       table.Cell(raw, idx[optPupilID]),
			Coordinates:   coords,
			Sequence:      seq,
			SessionBegin:  normalizeClock(table.Cell(raw, idx[optSessionBegin])),
			SessionEnd:    normalizeClock(table.Cell(raw, idx[optSessionEnd])),
		})
	}

	return dump, nil
}

func parseApplicability(v string) domain.Applicability {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "AM ONLY":
		return domain.AMOnly
	case "PM ONLY":
		return domain.PMOnly
	default:
		return domain.BothSessions
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parse float: non-finite value %q", s)
	}
	return f, nil
}

// parseSequence accepts integers and integral floats such as "3.0".
func parseSequence(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("parse sequence: non-integral value %q", s)
	}
	return int(f), nil
}

var clockLayouts = []string{"15:04:05", "15:04", "3:04 PM", "3:04:05 PM", "2006-01-02 15:04:05", time.RFC3339}

// normalizeClock renders a time-of-day as HH:MM:SS, or returns the input unchanged when it does not parse.
func normalizeClock(s string) string {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05")
		}
	}
	return s
}
