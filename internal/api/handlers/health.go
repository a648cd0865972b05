package handlers

import (
	"net/http"

	"school-bus-trip-service/internal/api/dto"
	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/services"
)

// SnapshotStatusReader reports the state of the cached schedule snapshots.
type SnapshotStatusReader interface {
	Status() map[domain.SnapshotKind]services.SnapshotStatus
}

type HealthHandler struct {
	Snapshots SnapshotStatusReader
}

// Health is a liveness check that also reports snapshot readiness. It always
// answers 200; status is "degraded" until both snapshots are loaded cleanly.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	res := dto.HealthResponse{Status: "ok", Snapshots: map[string]dto.SnapshotHealth{}}
	if h.Snapshots == nil {
		writeJSON(w, r, http.StatusOK, res)
		return
	}

	for kind, st := range h.Snapshots.Status() {
		sh := dto.SnapshotHealth{Loaded: st.Loaded, Rows: st.Rows, Error: st.Error}
		if !st.FetchedAt.IsZero() {
			fetched := st.FetchedAt
			sh.FetchedAt = &fetched
		}
		if !st.Loaded || st.Error != "" {
			res.Status = "degraded"
		}
		res.Snapshots[string(kind)] = sh
	}

	writeJSON(w, r, http.StatusOK, res)
}
