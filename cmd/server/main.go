package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"school-bus-trip-service/internal/adapters/cache"
	"school-bus-trip-service/internal/adapters/drive"
	"school-bus-trip-service/internal/adapters/repositories"
	"school-bus-trip-service/internal/adapters/sheets"
	"school-bus-trip-service/internal/adapters/telemetry"
	"school-bus-trip-service/internal/api"
	"school-bus-trip-service/internal/config"
	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/platform/db"
	"school-bus-trip-service/internal/platform/obs"
	"school-bus-trip-service/internal/ports"
	"school-bus-trip-service/internal/services"
)

// Size of the in-process device id cache in front of the shared one.
const deviceCacheSize = 2048

// main is the application composition root.
// It wires concrete adapters (SQL, Redis, Sheets, Drive, Geotab) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
	obs.InitLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	fleet, err := config.LoadFleet(cfg.DepotsPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, dialect, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	optRepo, err := newOptRepository(conn, dialect, cfg.OptTable)
	if err != nil {
		log.Fatal(err)
	}
	devices, err := newDeviceCache(conn, dialect, cfg)
	if err != nil {
		log.Fatal(err)
	}
	provider, err := newTelemetry(cfg, devices)
	if err != nil {
		log.Fatal(err)
	}

	var googleOpts []option.ClientOption
	if cfg.GoogleCredentialsFile != "" {
		googleOpts = append(googleOpts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	}

	snapshots := services.NewSnapshotCache()
	if err := startRefresher(ctx, cfg, snapshots, googleOpts); err != nil {
		log.Printf("schedule snapshots disabled: %v", err)
	}

	resolver := &services.ScheduleResolver{
		Snapshots:   snapshots,
		FleetPrefix: fleet.FleetPrefix,
		Depots:      fleet.DomainDepots(),
		Location:    cfg.Location(),
	}
	trips := &services.TripViewService{
		Resolver:  resolver,
		Opt:       optRepo,
		Telemetry: provider,
	}
	if cfg.DVIRootFolderID != "" {
		finder, err := drive.NewDVIFinder(ctx, cfg.DriveID, cfg.DVIRootFolderID, googleOpts...)
		if err != nil {
			log.Printf("inspection lookup disabled: %v", err)
		} else {
			trips.DVI = finder
		}
	}
	overlays := &services.ExceptionOverlayService{
		Telemetry:   provider,
		FleetPrefix: fleet.FleetPrefix,
	}

	router := api.NewRouter(api.Deps{
		Trips:     trips,
		Overlays:  overlays,
		Snapshots: snapshots,
	})

	// Timeouts allow for cold device lookups and slow telemetry windows.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server listening addr=:%s telemetry=%s store=%s", cfg.Port, cfg.TelemetryMode, dialect)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown failed: %v", err)
	}
}

// openStore connects to postgres when DATABASE_URL is set, otherwise to a
// local sqlite file with the schema created on startup.
func openStore(cfg config.Config) (*sql.DB, repositories.Dialect, error) {
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, "", err
		}
		return conn, repositories.Postgres, nil
	}

	conn, err := db.OpenSqlite(cfg.DBPath)
	if err != nil {
		return nil, "", err
	}
	if err := repositories.InitSchema(conn, cfg.OptTable); err != nil {
		conn.Close()
		return nil, "", err
	}
	return conn, repositories.Sqlite, nil
}

func newOptRepository(conn *sql.DB, dialect repositories.Dialect, table string) (ports.OptRepository, error) {
	if dialect == repositories.Postgres {
		return repositories.NewPostgresOptRepository(conn, table)
	}
	return repositories.NewSqliteOptRepository(conn, table)
}

// newDeviceCache puts an in-process LRU in front of Redis, or in front of the
// SQL store when no Redis is configured.
func newDeviceCache(conn *sql.DB, dialect repositories.Dialect, cfg config.Config) (ports.DeviceCache, error) {
	var backing ports.DeviceCache
	switch {
	case cfg.RedisURL != "":
		client, err := cache.ParseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		backing = cache.NewRedisDeviceCache(client, cfg.DeviceCacheTTL)
	case dialect == repositories.Postgres:
		backing = cache.NewSQLDeviceCache(conn, cfg.DeviceCacheTTL)
	default:
		backing = cache.NewSqliteDeviceCache(conn, cfg.DeviceCacheTTL)
	}
	return cache.NewTieredDeviceCache(deviceCacheSize, cfg.DeviceCacheTTL, backing), nil
}

func newTelemetry(cfg config.Config, devices ports.DeviceCache) (ports.TelemetryProvider, error) {
	if cfg.TelemetryMode == "mock" {
		p := telemetry.NewMockProvider(nil)
		p.Synthesize = true
		return p, nil
	}
	return telemetry.NewGeotabClient(telemetry.GeotabConfig{
		Server:   cfg.GeotabServer,
		Database: cfg.GeotabDatabase,
		Username: cfg.GeotabUsername,
		Password: cfg.GeotabPassword,
	}, devices)
}

// startRefresher loads the configured schedule sheets and keeps them fresh
// in the background.
func startRefresher(ctx context.Context, cfg config.Config, snapshots *services.SnapshotCache, opts []option.ClientOption) error {
	source, err := sheets.NewScheduleSource(ctx, sheets.Config{
		CurrentSheetID:    cfg.CurrentSheetID,
		CurrentRange:      cfg.CurrentSheetRange,
		HistoricalSheetID: cfg.HistoricalSheetID,
		HistoricalRange:   cfg.HistoricalSheetRange,
	}, opts...)
	if err != nil {
		return fmt.Errorf("start refresher: %w", err)
	}

	intervals := make(map[domain.SnapshotKind]time.Duration, 2)
	if cfg.CurrentSheetID != "" {
		intervals[domain.SnapshotCurrent] = cfg.CurrentRefreshInterval
	}
	if cfg.HistoricalSheetID != "" {
		intervals[domain.SnapshotHistorical] = cfg.HistoricalRefreshInterval
	}

	refresher := &services.SnapshotRefresher{
		Source:    source,
		Cache:     snapshots,
		Intervals: intervals,
	}
	go refresher.Run(ctx)

	return nil
}
