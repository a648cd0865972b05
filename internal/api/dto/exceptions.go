package dto

import "time"

type ExceptionsRequest struct {
	VehicleNumber string `json:"vehicle_number"`
	Date          string `json:"date"`
	// Session is "AM", "PM" or empty for the whole day.
	Session string `json:"session"`
}

type AnnotatedPointResponse struct {
	Lat              float64   `json:"lat"`
	Lon              float64   `json:"lon"`
	Timestamp        time.Time `json:"ts"`
	SpeedKph         float64   `json:"spd"`
	ExceptionType    string    `json:"exception_type"`
	ExceptionDetails string    `json:"exception_details"`
}

type ExceptionResponse struct {
	Type            string    `json:"type"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_seconds"`
	Details         string    `json:"details"`
}

type ExceptionsResponse struct {
	VehicleNumber string                   `json:"vehicle_number"`
	DeviceID      string                   `json:"device_id"`
	From          time.Time                `json:"from"`
	To            time.Time                `json:"to"`
	Points        []AnnotatedPointResponse `json:"points"`
	Exceptions    []ExceptionResponse      `json:"exceptions"`
	Status        string                   `json:"status"`
	Warnings      []string                 `json:"warnings"`
}
