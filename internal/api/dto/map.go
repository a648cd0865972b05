package dto

import "time"

type MapRequest struct {
	Route string `json:"route"`
	Date  string `json:"date"`
}

type TracePointResponse struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"ts"`
	SpeedKph  float64   `json:"spd"`
}

type StopResponse struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Type     string  `json:"type"`
	Sequence int     `json:"sequence"`
	Info     string  `json:"info"`
}

type TraceSummaryResponse struct {
	Points         int        `json:"points"`
	DistanceMeters float64    `json:"distance_meters"`
	MaxSpeedKph    float64    `json:"max_speed_kph"`
	MeanSpeedKph   float64    `json:"mean_speed_kph"`
	Start          *time.Time `json:"start"`
	End            *time.Time `json:"end"`
}

type SessionMapResponse struct {
	VehicleNumber string               `json:"vehicle_number"`
	DeviceID      string               `json:"device_id"`
	Trace         []TracePointResponse `json:"trace"`
	Stops         []StopResponse       `json:"stops"`
	Summary       TraceSummaryResponse `json:"summary"`
	Status        string               `json:"status"`
	Warnings      []string             `json:"warnings"`
}

type MapResponse struct {
	Route       string              `json:"route"`
	Date        string              `json:"date"`
	AMMapData   SessionMapResponse  `json:"am_map_data"`
	PMMapData   SessionMapResponse  `json:"pm_map_data"`
	DVILink     string              `json:"dvi_link"`
	OptData     []map[string]string `json:"opt_data"`
	DriverName  string              `json:"driver_name"`
	DriverPhone string              `json:"driver_phone"`
	// Status is keyed by part: schedule, opt, am, pm, dvi.
	Status   map[string]string `json:"status"`
	Warnings []string          `json:"warnings"`
}
