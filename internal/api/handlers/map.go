package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"school-bus-trip-service/internal/api/dto"
	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/services"
)

const (
	notAvailable   = "N/A"
	defaultDVILink = "#"
)

type TripViewBuilder interface {
	Build(ctx context.Context, req services.TripViewRequest) (*services.TripView, error)
}

type MapHandler struct {
	Trips TripViewBuilder
}

// Map returns the schedule, stops, GPS traces and inspection link for a route and date.
func (h *MapHandler) Map(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.MapRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	route := strings.TrimSpace(req.Route)
	dateStr := strings.TrimSpace(req.Date)
	if route == "" || dateStr == "" {
		writeError(w, r, http.StatusBadRequest, "Missing route or date")
		return
	}
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	view, err := h.Trips.Build(r.Context(), services.TripViewRequest{Route: route, Date: date})
	if err != nil {
		log.Printf("build trip view failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, mapResponse(view))
}

func mapResponse(v *services.TripView) dto.MapResponse {
	sched := v.Schedule.Value

	res := dto.MapResponse{
		Route:       v.Route,
		Date:        v.Date.Format(time.DateOnly),
		AMMapData:   sessionResponse(v.Sessions[domain.SessionAM]),
		PMMapData:   sessionResponse(v.Sessions[domain.SessionPM]),
		DVILink:     orDefault(v.DVILink.Value, defaultDVILink),
		OptData:     nonNil(v.Opt.Value),
		DriverName:  orDefault(sched.DriverName, notAvailable),
		DriverPhone: orDefault(sched.DriverPhone, notAvailable),
		Status: map[string]string{
			"schedule": string(v.Schedule.Status),
			"opt":      string(v.Opt.Status),
			"am":       string(v.Sessions[domain.SessionAM].Status),
			"pm":       string(v.Sessions[domain.SessionPM].Status),
			"dvi":      string(v.DVILink.Status),
		},
		Warnings: []string{},
	}

	res.Warnings = append(res.Warnings, prefixed("schedule", v.Schedule.Messages())...)
	res.Warnings = append(res.Warnings, prefixed("opt", v.Opt.Messages())...)
	res.Warnings = append(res.Warnings, prefixed("dvi", v.DVILink.Messages())...)

	return res
}

func sessionResponse(r domain.Result[services.SessionView]) dto.SessionMapResponse {
	sv := r.Value

	out := dto.SessionMapResponse{
		VehicleNumber: sv.VehicleID,
		DeviceID:      sv.DeviceID,
		Trace:         make([]dto.TracePointResponse, 0, len(sv.Trace.Points)),
		Stops:         make([]dto.StopResponse, 0, len(sv.Stops.Stops)),
		Summary: dto.TraceSummaryResponse{
			Points:         sv.Summary.Points,
			DistanceMeters: sv.Summary.DistanceMeters,
			MaxSpeedKph:    sv.Summary.MaxSpeedKph,
			MeanSpeedKph:   sv.Summary.MeanSpeedKph,
		},
		Status:   string(r.Status),
		Warnings: nonNil(r.Messages()),
	}
	if !sv.Summary.Start.IsZero() {
		start, end := sv.Summary.Start, sv.Summary.End
		out.Summary.Start, out.Summary.End = &start, &end
	}

	for _, p := range sv.Trace.Points {
		out.Trace = append(out.Trace, dto.TracePointResponse{
			Lat:       p.Lat,
			Lon:       p.Lon,
			Timestamp: p.Timestamp,
			SpeedKph:  p.SpeedKph,
		})
	}
	for _, s := range sv.Stops.Stops {
		out.Stops = append(out.Stops, stopResponse(s))
	}

	return out
}

func stopResponse(s domain.Stop) dto.StopResponse {
	pos := s.Position()
	out := dto.StopResponse{Lat: pos.Lat, Lon: pos.Lon}

	switch st := s.(type) {
	case domain.PickupStop:
		pupils := notAvailable
		if len(st.PupilIDs) > 0 {
			pupils = strings.Join(st.PupilIDs, ", ")
		}
		out.Type = "student"
		out.Sequence = st.Sequence
		out.Info = fmt.Sprintf("Pickup #: %d<br>Pupil ID: %s", st.Sequence, pupils)
	case domain.SchoolStop:
		out.Type = "school"
		out.Info = fmt.Sprintf("School: %s<br>Session Begin: %s", orDefault(st.SchoolName, notAvailable), sessionClock(st.SessionBegin))
	}

	return out
}

// sessionClock renders HH:MM:SS as a 12-hour clock, or returns the raw value.
func sessionClock(s string) string {
	if s == "" {
		return notAvailable
	}
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return s
	}
	return t.Format("03:04 PM")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func prefixed(part string, msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, part+": "+m)
	}
	return out
}
