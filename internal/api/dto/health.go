package dto

import "time"

type SnapshotHealth struct {
	Loaded    bool       `json:"loaded"`
	Rows      int        `json:"rows"`
	FetchedAt *time.Time `json:"fetched_at"`
	Error     string     `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string                    `json:"status"`
	Snapshots map[string]SnapshotHealth `json:"snapshots"`
}
