package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"school-bus-trip-service/internal/api/dto"
	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/services"
)

type ExceptionOverlayBuilder interface {
	Build(ctx context.Context, req services.ExceptionOverlayRequest) (domain.Result[services.ExceptionOverlay], error)
}

type ExceptionsHandler struct {
	Overlays ExceptionOverlayBuilder
}

// Exceptions returns a vehicle's trace annotated with safety-rule exceptions.
func (h *ExceptionsHandler) Exceptions(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.ExceptionsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	vehicle := strings.TrimSpace(req.VehicleNumber)
	dateStr := strings.TrimSpace(req.Date)
	if vehicle == "" || dateStr == "" {
		writeError(w, r, http.StatusBadRequest, "Missing vehicle_number or date")
		return
	}
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	var session domain.Session
	if strings.TrimSpace(req.Session) != "" {
		session, err = domain.ParseSession(req.Session)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "session must be AM or PM")
			return
		}
	}

	res, err := h.Overlays.Build(r.Context(), services.ExceptionOverlayRequest{
		Vehicle: vehicle,
		Date:    date,
		Session: session,
	})
	if err != nil {
		log.Printf("build exception overlay failed: %v", err)
		writeError(w, r, http.StatusBadRequest, "invalid vehicle_number")
		return
	}

	ov := res.Value
	out := dto.ExceptionsResponse{
		VehicleNumber: ov.VehicleID,
		DeviceID:      ov.DeviceID,
		From:          ov.From,
		To:            ov.To,
		Points:        make([]dto.AnnotatedPointResponse, 0, len(ov.Annotation.Points)),
		Exceptions:    make([]dto.ExceptionResponse, 0, len(ov.Annotation.Exceptions)),
		Status:        string(res.Status),
		Warnings:      nonNil(res.Messages()),
	}
	for _, p := range ov.Annotation.Points {
		out.Points = append(out.Points, dto.AnnotatedPointResponse{
			Lat:              p.Lat,
			Lon:              p.Lon,
			Timestamp:        p.Timestamp,
			SpeedKph:         p.SpeedKph,
			ExceptionType:    p.ExceptionType,
			ExceptionDetails: p.ExceptionDetails,
		})
	}
	for _, e := range ov.Annotation.Exceptions {
		out.Exceptions = append(out.Exceptions, dto.ExceptionResponse{
			Type:            e.Type,
			Start:           e.Start,
			End:             e.End,
			DurationSeconds: e.DurationSeconds,
			Details:         e.Details,
		})
	}

	writeJSON(w, r, http.StatusOK, out)
}
