package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
)

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// GetInt parses an integer environment value, logging and falling back on bad input.
func GetInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: invalid int key=%s value=%q, using fallback=%d", key, v, fallback)
		return fallback
	}
	return n
}

// GetDuration parses a Go duration ("5m", "24h"), logging and falling back on bad input.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid duration key=%s value=%q, using fallback=%s", key, v, fallback)
		return fallback
	}
	return d
}

// Config is the process configuration assembled from the environment.
type Config struct {
	Port string `validate:"required,numeric"`

	DatabaseURL string
	DBPath      string
	OptTable    string `validate:"required"`

	GoogleCredentialsFile string
	CurrentSheetID        string
	CurrentSheetRange     string `validate:"required"`
	HistoricalSheetID     string
	HistoricalSheetRange  string `validate:"required"`
	DriveID               string
	DVIRootFolderID       string

	TelemetryMode  string `validate:"oneof=geotab mock"`
	GeotabServer   string `validate:"required_if=TelemetryMode geotab"`
	GeotabDatabase string `validate:"required_if=TelemetryMode geotab"`
	GeotabUsername string `validate:"required_if=TelemetryMode geotab"`
	GeotabPassword string `validate:"required_if=TelemetryMode geotab"`

	RedisURL       string
	DeviceCacheTTL time.Duration `validate:"gt=0"`

	CurrentRefreshInterval    time.Duration `validate:"gt=0"`
	HistoricalRefreshInterval time.Duration `validate:"gt=0"`

	Timezone   string `validate:"required"`
	DepotsPath string
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:        Get("PORT", "8080"),
		DatabaseURL: Get("DATABASE_URL", ""),
		DBPath:      Get("DB_PATH", "data/app.db"),
		OptTable:    Get("OPT_TABLE", "nycsbus_opt_routes"),

		GoogleCredentialsFile: Get("GOOGLE_CREDENTIALS_FILE", ""),
		CurrentSheetID:        Get("CURRENT_RAS_SHEET_ID", ""),
		CurrentSheetRange:     Get("CURRENT_RAS_RANGE", "Week Sheet"),
		HistoricalSheetID:     Get("HISTORICAL_RAS_SHEET_ID", ""),
		HistoricalSheetRange:  Get("HISTORICAL_RAS_RANGE", "Archived_RAS"),
		DriveID:               Get("DRIVE_ID", ""),
		DVIRootFolderID:       Get("DVI_ROOT_FOLDER_ID", ""),

		TelemetryMode:  Get("TELEMETRY_MODE", "geotab"),
		GeotabServer:   Get("GEOTAB_SERVER", "my.geotab.com"),
		GeotabDatabase: Get("GEOTAB_DATABASE", ""),
		GeotabUsername: Get("GEOTAB_USERNAME", ""),
		GeotabPassword: Get("GEOTAB_PASSWORD", ""),

		RedisURL:       Get("REDIS_URL", ""),
		DeviceCacheTTL: GetDuration("DEVICE_CACHE_TTL", 24*time.Hour),

		CurrentRefreshInterval:    GetDuration("CURRENT_REFRESH_INTERVAL", 5*time.Minute),
		HistoricalRefreshInterval: GetDuration("HISTORICAL_REFRESH_INTERVAL", 24*time.Hour),

		Timezone:   Get("TIMEZONE", "America/New_York"),
		DepotsPath: Get("DEPOTS_PATH", ""),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("load config: timezone %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location returns the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
