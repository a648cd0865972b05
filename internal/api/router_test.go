package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"school-bus-trip-service/internal/services"
)

func TestRouterRequestID(t *testing.T) {
	h := NewRouter(Deps{Snapshots: services.NewSnapshotCache()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("missing generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want caller's id", got)
	}
}

func TestRouterRoutes(t *testing.T) {
	h := NewRouter(Deps{Snapshots: services.NewSnapshotCache()})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/get_map", http.StatusMethodNotAllowed},
		{http.MethodGet, "/get_exceptions", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestMetricPath(t *testing.T) {
	if metricPath("/get_map") != "/get_map" || metricPath("/random/123") != "other" {
		t.Error("metricPath did not bound labels")
	}
}
