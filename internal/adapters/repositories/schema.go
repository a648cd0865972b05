package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Dialect selects placeholder syntax for statements shared by postgres and sqlite.
type Dialect string

const (
	Postgres Dialect = "postgres"
	Sqlite   Dialect = "sqlite"
)

func (d Dialect) placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		if d == Postgres {
			ph[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ph[i] = "?"
		}
	}
	return strings.Join(ph, ", ")
}

// InitSchema creates the OPT dump table and the device cache. The DDL is
// valid for both postgres and sqlite.
func InitSchema(db *sql.DB, optTable string) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}
	table, err := validTable(optTable)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createOptQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		route TEXT NOT NULL,
		am_pm TEXT,
		address TEXT,
		"School_Code_&_Name" TEXT,
		pupil_id_no TEXT,
		pupil_lat DOUBLE PRECISION,
		pupil_lon DOUBLE PRECISION,
		seg_no INTEGER,
		sess_beg TEXT,
		sess_end TEXT,
		extraction_date DATE NOT NULL
	);
	`, table)

	createOptIndexQuery := fmt.Sprintf(`
	CREATE INDEX IF NOT EXISTS idx_%s_route_extraction
    ON %s(route, extraction_date);
	`, strings.ReplaceAll(table, ".", "_"), table)

	createDeviceCacheQuery := `
	CREATE TABLE IF NOT EXISTS device_cache (
        vehicle_id TEXT PRIMARY KEY,
        device_id TEXT NOT NULL,
        updated_at BIGINT NOT NULL
    );
	`

	statements := []string{
		createOptQuery,
		createOptIndexQuery,
		createDeviceCacheQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// OptSeed is one OPT dump row in the seed file.
type OptSeed struct {
	Route          string   `json:"route"`
	AmPm           string   `json:"am_pm"`
	Address        string   `json:"address"`
	School         string   `json:"School_Code_&_Name"`
	PupilID        string   `json:"pupil_id_no"`
	PupilLat       *float64 `json:"pupil_lat"`
	PupilLon       *float64 `json:"pupil_lon"`
	SegNo          int      `json:"seg_no"`
	SessBeg        string   `json:"sess_beg"`
	SessEnd        string   `json:"sess_end"`
	ExtractionDate string   `json:"extraction_date"`
}

// Populate the OPT table from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string, optTable string, dialect Dialect) (int, error) {
	table, err := validTable(optTable)
	if err != nil {
		return 0, fmt.Errorf("seed opt rows: %w", err)
	}

	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed opt rows: read %q: %w", jsonPath, err)
	}

	var data []OptSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed opt rows: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.Route) == "" {
			return 0, fmt.Errorf("seed opt rows: item at index %d: route cannot be empty", i+1)
		}
		if _, err := time.Parse(time.DateOnly, item.ExtractionDate); err != nil {
			return 0, fmt.Errorf("seed opt rows: item at index %d: extraction_date %q: %w", i+1, item.ExtractionDate, err)
		}
		if item.SegNo < 0 {
			return 0, fmt.Errorf("seed opt rows: item at index %d: negative seg_no %d", i+1, item.SegNo)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("seed opt rows: begin tx: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
	INSERT INTO %s (
		route,
		am_pm,
		address,
		"School_Code_&_Name",
		pupil_id_no,
		pupil_lat,
		pupil_lon,
		seg_no,
		sess_beg,
		sess_end,
		extraction_date
	)
	VALUES (%s);
	`, table, dialect.placeholders(11))
	stmt, err := tx.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("seed opt rows: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range data {
		_, err := stmt.Exec(
			strings.TrimSpace(r.Route), r.AmPm, r.Address, r.School, r.PupilID,
			r.PupilLat, r.PupilLon, r.SegNo, r.SessBeg, r.SessEnd, r.ExtractionDate,
		)
		if err != nil {
			return 0, fmt.Errorf("seed opt rows: insert index %d route=%s: %w", i+1, r.Route, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("seed opt rows: commit tx: %w", err)
	}

	return len(data), nil
}
