package sheets

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/platform/obs"
)

// Config names the spreadsheet and A1 range (usually a whole sheet) per snapshot kind.
type Config struct {
	CurrentSheetID    string
	CurrentRange      string
	HistoricalSheetID string
	HistoricalRange   string
}

type sheetRange struct {
	id  string
	rng string
}

// ScheduleSource reads the RAS schedule sheets. The first row of each range
// is the header.
type ScheduleSource struct {
	svc    *sheetsapi.Service
	ranges map[domain.SnapshotKind]sheetRange
}

// NewScheduleSource builds a read-only Sheets client. opts carry credentials,
// or an endpoint override in tests.
func NewScheduleSource(ctx context.Context, cfg Config, opts ...option.ClientOption) (*ScheduleSource, error) {
	if cfg.CurrentSheetID == "" && cfg.HistoricalSheetID == "" {
		return nil, errors.New("schedule source: no sheet ids configured")
	}

	opts = append([]option.ClientOption{option.WithScopes(sheetsapi.SpreadsheetsReadonlyScope)}, opts...)
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("schedule source: create sheets client: %w", err)
	}

	return &ScheduleSource{
		svc: svc,
		ranges: map[domain.SnapshotKind]sheetRange{
			domain.SnapshotCurrent:    {id: cfg.CurrentSheetID, rng: cfg.CurrentRange},
			domain.SnapshotHistorical: {id: cfg.HistoricalSheetID, rng: cfg.HistoricalRange},
		},
	}, nil
}

func (s *ScheduleSource) FetchSchedule(ctx context.Context, kind domain.SnapshotKind) (_ domain.Table, err error) {
	defer obs.Time(ctx, "sheets.FetchSchedule."+string(kind))(&err)

	r, ok := s.ranges[kind]
	if !ok || r.id == "" {
		return domain.Table{}, fmt.Errorf("fetch %s schedule: no sheet configured: %w", kind, domain.ErrSourceUnavailable)
	}

	vr, err := s.svc.Spreadsheets.Values.Get(r.id, r.rng).Context(ctx).Do()
	if err != nil {
		return domain.Table{}, fmt.Errorf("fetch %s schedule: %w: %w", kind, domain.ErrSourceUnavailable, err)
	}

	return toTable(vr.Values), nil
}

// toTable converts sheet values to a Table. Trailing empty cells are omitted
// by the API, so rows may be shorter than the header.
func toTable(values [][]any) domain.Table {
	if len(values) == 0 {
		return domain.Table{}
	}

	t := domain.Table{Header: cells(values[0])}
	for _, row := range values[1:] {
		t.Rows = append(t.Rows, cells(row))
	}
	return t
}

func cells(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
