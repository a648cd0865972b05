package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"school-bus-trip-service/internal/domain"
)

func newTestSource(t *testing.T, handler http.HandlerFunc, cfg Config) *ScheduleSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src, err := NewScheduleSource(context.Background(), cfg,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewScheduleSource() error = %v", err)
	}
	return src
}

var testConfig = Config{
	CurrentSheetID:    "cur",
	CurrentRange:      "Week Sheet",
	HistoricalSheetID: "hist",
	HistoricalRange:   "Archived_RAS",
}

func TestFetchScheduleConvertsValues(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/spreadsheets/cur/values/Week Sheet") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "'Week Sheet'!A1:G3",
			"majorDimension": "ROWS",
			"values": [
				["Date", "Route", "Trip Type", "Vehicle#"],
				["Wednesday-14", "B12", "AM", 123],
				["Wednesday-14", "B12"]
			]
		}`))
	}, testConfig)

	table, err := src.FetchSchedule(context.Background(), domain.SnapshotCurrent)
	if err != nil {
		t.Fatalf("FetchSchedule() error = %v", err)
	}

	if len(table.Header) != 4 || table.Header[3] != "Vehicle#" {
		t.Errorf("header = %v", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if got := table.Cell(table.Rows[0], 3); got != "123" {
		t.Errorf("vehicle cell = %q, want 123", got)
	}
	if got := table.Cell(table.Rows[1], 3); got != "" {
		t.Errorf("short row cell = %q, want empty", got)
	}
}

func TestFetchScheduleEmptySheet(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range": "Archived_RAS!A1:Z1", "majorDimension": "ROWS"}`))
	}, testConfig)

	table, err := src.FetchSchedule(context.Background(), domain.SnapshotHistorical)
	if err != nil {
		t.Fatalf("FetchSchedule() error = %v", err)
	}
	if len(table.Header) != 0 || len(table.Rows) != 0 {
		t.Errorf("table = %+v, want empty", table)
	}
}

func TestFetchScheduleErrors(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "denied"}}`, http.StatusForbidden)
	}, Config{CurrentSheetID: "cur", CurrentRange: "Week Sheet"})

	_, err := src.FetchSchedule(context.Background(), domain.SnapshotCurrent)
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("api error = %v, want ErrSourceUnavailable", err)
	}

	_, err = src.FetchSchedule(context.Background(), domain.SnapshotHistorical)
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Errorf("unconfigured kind error = %v, want ErrSourceUnavailable", err)
	}
}
