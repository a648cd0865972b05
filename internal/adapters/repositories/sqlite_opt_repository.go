package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"school-bus-trip-service/internal/domain"
)

// SQLite backed OPT dump for local runs. extraction_date is stored as
// YYYY-MM-DD text so string comparison orders dates.
type SqliteOptRepository struct {
	DB    *sql.DB
	table string
}

func NewSqliteOptRepository(db *sql.DB, table string) (*SqliteOptRepository, error) {
	t, err := validTable(table)
	if err != nil {
		return nil, err
	}
	return &SqliteOptRepository{DB: db, table: t}, nil
}

func (r *SqliteOptRepository) ListRouteRows(ctx context.Context, route string, date time.Time) (domain.Table, error) {
	if r.DB == nil {
		return domain.Table{}, errors.New("list opt rows: db is nil")
	}

	q := fmt.Sprintf(`
	SELECT *
    FROM %[1]s
    WHERE route = ?
      AND extraction_date = (
        SELECT MAX(extraction_date)
        FROM %[1]s
        WHERE route = ?
          AND extraction_date <= ?
      )
	ORDER BY seg_no;
	`, r.table)

	rows, err := r.DB.QueryContext(ctx, q, route, route, date.Format(time.DateOnly))
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
