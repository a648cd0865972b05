package repositories

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"school-bus-trip-service/internal/domain"
)

// DefaultOptTable is the production OPT dump table.
const DefaultOptTable = "nycsbus_opt_routes"

var tableIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// validTable guards the table name, which is interpolated into SQL.
func validTable(name string) (string, error) {
	if name == "" {
		return DefaultOptTable, nil
	}
	if !tableIdent.MatchString(name) {
		return "", fmt.Errorf("invalid opt table name %q", name)
	}
	return name, nil
}

// scanTable reads every row as strings, keeping the query's column order as header.
func scanTable(rows *sql.Rows) (domain.Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return domain.Table{}, fmt.Errorf("read columns: %w", err)
	}

	out := domain.Table{Header: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.Table{}, fmt.Errorf("scan rows: %w", err)
		}

		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.Table{}, fmt.Errorf("row iteration: %w", err)
	}

	return out, nil
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
