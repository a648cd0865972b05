package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"school-bus-trip-service/internal/domain"
	"school-bus-trip-service/internal/platform/obs"
)

// PostgresOptRepository reads the OPT dump from postgres.
type PostgresOptRepository struct {
	DB    *sql.DB
	table string
}

func NewPostgresOptRepository(db *sql.DB, table string) (*PostgresOptRepository, error) {
	t, err := validTable(table)
	if err != nil {
		return nil, err
	}
	return &PostgresOptRepository{DB: db, table: t}, nil
}

// ListRouteRows returns the route's rows from the latest extraction on or before date.
func (r *PostgresOptRepository) ListRouteRows(ctx context.Context, route string, date time.Time) (_ domain.Table, err error) {
	defer obs.Time(ctx, "opt.ListRouteRows")(&err)

	if r.DB == nil {
		return domain.Table{}, errors.New("list opt rows: db is nil")
	}

	q := fmt.Sprintf(`
	SELECT *
    FROM %[1]s
    WHERE route = $1
      AND extraction_date = (
        SELECT MAX(extraction_date)
        FROM %[1]s
        WHERE route = $1
          AND extraction_date <= $2
      )
	ORDER BY seg_no;
	`, r.table)

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	rows, err := r.DB.QueryContext(ctx, q, route, day)
	if err != nil {
		return domain.Table{}, fmt.Errorf("list opt rows route=%q: %w: %w", route, domain.ErrSourceUnavailable, err)
	}
	defer rows.Close()

	t, err := scanTable(rows)
	if err != nil {
		return domain.Table{}, fmt.Errorf("list opt rows route=%q: %w", route, err)
	}
	return t, nil
}
