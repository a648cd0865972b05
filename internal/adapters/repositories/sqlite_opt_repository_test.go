package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"school-bus-trip-service/internal/platform/db"
)

const seedJSON = `[
  {"route": "B12", "am_pm": "", "address": "1 School Rd", "School_Code_&_Name": "PS 11 ARRIVE", "pupil_lat": 40.71, "pupil_lon": -73.91, "seg_no": 0, "sess_beg": "08:00:00", "extraction_date": "2026-01-05"},
  {"route": "B12", "address": "10 Bus Ave", "School_Code_&_Name": "PS 11 ARRIVE", "pupil_id_no": "555", "pupil_lat": 40.70, "pupil_lon": -73.90, "seg_no": 1, "extraction_date": "2026-01-05"},
  {"route": "B12", "address": "1 School Rd", "School_Code_&_Name": "PS 11 ARRIVE", "pupil_lat": 40.71, "pupil_lon": -73.91, "seg_no": 0, "sess_beg": "08:10:00", "extraction_date": "2026-01-12"},
  {"route": "B12", "address": "12 Bus Ave", "School_Code_&_Name": "PS 11 ARRIVE", "pupil_id_no": "556", "pupil_lat": 40.69, "seg_no": 1, "extraction_date": "2026-01-12"},
  {"route": "B13", "address": "9 Other St", "School_Code_&_Name": "IS 2", "pupil_id_no": "777", "pupil_lat": 40.6, "pupil_lon": -73.8, "seg_no": 1, "extraction_date": "2026-01-12"}
]`

func newSeededDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.OpenSqlite(":memory:")
	if err != nil {
		t.Fatalf("OpenSqlite() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := InitSchema(conn, DefaultOptTable); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "opt.json")
	if err := os.WriteFile(path, []byte(seedJSON), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	n, err := SeedFromJSON(conn, path, DefaultOptTable, Sqlite)
	if err != nil {
		t.Fatalf("SeedFromJSON() error = %v", err)
	}
	if n != 5 {
		t.Fatalf("seeded = %d, want 5", n)
	}
	return conn
}

func TestSqliteOptRepositoryLatestExtraction(t *testing.T) {
	repo, err := NewSqliteOptRepository(newSeededDB(t), "")
	if err != nil {
		t.Fatalf("NewSqliteOptRepository() error = %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name      string
		date      time.Time
		wantRows  int
		wantPupil string
	}{
		{"latest on or before", time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), 2, "556"},
		{"earlier extraction", time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC), 2, "555"},
		{"exact extraction day", time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), 2, "556"},
		{"before any extraction", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := repo.ListRouteRows(ctx, "B12", tt.date)
			if err != nil {
				t.Fatalf("ListRouteRows() error = %v", err)
			}
			if len(table.Rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(table.Rows), tt.wantRows)
			}
			if table.Column("School_Code_&_Name") < 0 || table.Column("seg_no") < 0 {
				t.Fatalf("header = %v", table.Header)
			}
			if tt.wantRows == 0 {
				return
			}

			pupil := table.Cell(table.Rows[1], table.Column("pupil_id_no"))
			if pupil != tt.wantPupil {
				t.Errorf("pupil = %q, want %q", pupil, tt.wantPupil)
			}
			if seq := table.Cell(table.Rows[0], table.Column("seg_no")); seq != "0" {
				t.Errorf("first seg_no = %q, want 0 (ordered)", seq)
			}
		})
	}
}

func TestSqliteOptRepositoryCellFormatting(t *testing.T) {
	repo, _ := NewSqliteOptRepository(newSeededDB(t), DefaultOptTable)

	table, err := repo.ListRouteRows(context.Background(), "B12", time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ListRouteRows() error = %v", err)
	}

	first := table.Rows[0]
	if got := table.Cell(first, table.Column("pupil_lat")); got != "40.71" {
		t.Errorf("pupil_lat = %q, want 40.71", got)
	}
	if got := table.Cell(first, table.Column("extraction_date")); got != "2026-01-12" {
		t.Errorf("extraction_date = %q, want 2026-01-12", got)
	}
	// Missing longitude is stored as NULL and surfaces as an empty cell.
	if got := table.Cell(table.Rows[1], table.Column("pupil_lon")); got != "" {
		t.Errorf("pupil_lon = %q, want empty", got)
	}
}

func TestOptTableNameValidation(t *testing.T) {
	for _, name := range []string{"opt; DROP TABLE x", "1table", "a.b.c", "opt-routes"} {
		if _, err := NewSqliteOptRepository(nil, name); err == nil {
			t.Errorf("NewSqliteOptRepository(%q) error = nil, want error", name)
		}
	}
	for _, name := range []string{"nycsbus_opt_routes", "public.nycsbus_opt_routes", ""} {
		if _, err := NewPostgresOptRepository(nil, name); err != nil {
			t.Errorf("NewPostgresOptRepository(%q) error = %v", name, err)
		}
	}
}

func TestSeedFromJSONValidates(t *testing.T) {
	conn, err := db.OpenSqlite(":memory:")
	if err != nil {
		t.Fatalf("OpenSqlite() error = %v", err)
	}
	defer conn.Close()
	if err := InitSchema(conn, ""); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	tests := map[string]string{
		"empty route":  `[{"route": " ", "seg_no": 1, "extraction_date": "2026-01-12"}]`,
		"bad date":     `[{"route": "B12", "seg_no": 1, "extraction_date": "12/01/2026"}]`,
		"negative seq": `[{"route": "B12", "seg_no": -1, "extraction_date": "2026-01-12"}]`,
		"not an array": `{"route": "B12"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed.json")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := SeedFromJSON(conn, path, "", Sqlite); err == nil {
				t.Fatal("SeedFromJSON() error = nil, want error")
			}
		})
	}
}

func TestDialectPlaceholders(t *testing.T) {
	if got := Postgres.placeholders(3); got != "$1, $2, $3" {
		t.Errorf("postgres = %q", got)
	}
	if got := Sqlite.placeholders(2); got != "?, ?" {
		t.Errorf("sqlite = %q", got)
	}
}
