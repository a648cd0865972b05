package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetFallsBack(t *testing.T) {
	t.Setenv("SBT_TEST_KEY", "")
	if got := Get("SBT_TEST_KEY", "fallback"); got != "fallback" {
		t.Errorf("Get() = %q, want %q", got, "fallback")
	}

	t.Setenv("SBT_TEST_KEY", "  value ")
	if got := Get("SBT_TEST_KEY", "fallback"); got != "value" {
		t.Errorf("Get() = %q, want %q", got, "value")
	}
}

func TestGetIntAndDuration(t *testing.T) {
	t.Setenv("SBT_INT", "42")
	if got := GetInt("SBT_INT", 7); got != 42 {
		t.Errorf("GetInt() = %d, want 42", got)
	}
	t.Setenv("SBT_INT", "forty-two")
	if got := GetInt("SBT_INT", 7); got != 7 {
		t.Errorf("GetInt() bad input = %d, want 7", got)
	}

	t.Setenv("SBT_DUR", "90s")
	if got := GetDuration("SBT_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("GetDuration() = %s, want 1m30s", got)
	}
	t.Setenv("SBT_DUR", "soon")
	if got := GetDuration("SBT_DUR", time.Minute); got != time.Minute {
		t.Errorf("GetDuration() bad input = %s, want 1m0s", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEMETRY_MODE", "mock")
	t.Setenv("PORT", "")
	t.Setenv("CURRENT_REFRESH_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.CurrentSheetRange != "Week Sheet" || cfg.HistoricalSheetRange != "Archived_RAS" {
		t.Errorf("sheet ranges = %q/%q", cfg.CurrentSheetRange, cfg.HistoricalSheetRange)
	}
	if cfg.CurrentRefreshInterval != 5*time.Minute {
		t.Errorf("CurrentRefreshInterval = %s, want 5m0s", cfg.CurrentRefreshInterval)
	}
}

func TestLoadRejectsGeotabWithoutCredentials(t *testing.T) {
	t.Setenv("TELEMETRY_MODE", "geotab")
	t.Setenv("GEOTAB_DATABASE", "")
	t.Setenv("GEOTAB_USERNAME", "")
	t.Setenv("GEOTAB_PASSWORD", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want validation error")
	}
}

func TestLoadRejectsBadTelemetryMode(t *testing.T) {
	t.Setenv("TELEMETRY_MODE", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatal("Load() error = nil, want validation error")
	}
}

func TestLoadFleetDefault(t *testing.T) {
	f, err := LoadFleet("")
	if err != nil {
		t.Fatalf("LoadFleet() error = %v", err)
	}
	if f.FleetPrefix != "NT" {
		t.Errorf("FleetPrefix = %q, want NT", f.FleetPrefix)
	}
	if len(f.DomainDepots()) != 6 {
		t.Errorf("len(depots) = %d, want 6", len(f.DomainDepots()))
	}
}

func TestLoadFleetFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depots.yaml")
	body := "fleet_prefix: nt\ndepots:\n  - name: Zerega\n    lon: -73.845146\n    lat: 40.830833\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFleet(path)
	if err != nil {
		t.Fatalf("LoadFleet() error = %v", err)
	}
	if f.FleetPrefix != "NT" {
		t.Errorf("FleetPrefix = %q, want NT", f.FleetPrefix)
	}
	d := f.DomainDepots()
	if len(d) != 1 || d[0].Name != "Zerega" || d[0].Coordinates.Lat != 40.830833 {
		t.Errorf("depots = %+v", d)
	}
}

func TestLoadFleetValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad prefix", "fleet_prefix: N1\ndepots:\n  - name: A\n    lon: 0\n    lat: 0\n"},
		{"no depots", "fleet_prefix: NT\ndepots: []\n"},
		{"lat out of range", "fleet_prefix: NT\ndepots:\n  - name: A\n    lon: 0\n    lat: 120\n"},
		{"duplicate", "fleet_prefix: NT\ndepots:\n  - name: A\n    lon: 0\n    lat: 0\n  - name: a\n    lon: 1\n    lat: 1\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "depots.yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFleet(path); err == nil {
				t.Fatal("LoadFleet() error = nil, want error")
			}
		})
	}
}
