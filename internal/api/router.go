package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"school-bus-trip-service/internal/api/handlers"
)

// Deps are the services behind the HTTP handlers.
type Deps struct {
	Trips     handlers.TripViewBuilder
	Overlays  handlers.ExceptionOverlayBuilder
	Snapshots handlers.SnapshotStatusReader
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	mux := http.NewServeMux()

	healthHandler := &handlers.HealthHandler{Snapshots: deps.Snapshots}
	mapHandler := &handlers.MapHandler{Trips: deps.Trips}
	exceptionsHandler := &handlers.ExceptionsHandler{Overlays: deps.Overlays}

	mux.HandleFunc("/health", healthHandler.Health)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/get_map", mapHandler.Map)
	mux.HandleFunc("/get_exceptions", exceptionsHandler.Exceptions)

	return loggingMiddleware(mux)
}
