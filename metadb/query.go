package metadb

import (
	"context"
	"database/sql"
	"fmt"
)

// Row is one result row from an ad hoc query, keyed by column name.
type Row map[string]any

// Query runs an arbitrary read-only SQL statement against the meta
// database and returns every row as a column-name-keyed map, for
// `meta query`.
func Query(ctx context.Context, db *sql.DB, sql string) ([]Row, error) {
	rows, err := db.QueryContext(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("meta query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var out []Row

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))

		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = coerceValue(values[i])
		}

		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return out, nil
}

func coerceValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}

	return v
}

// Tables lists every user table name in the meta database, for
// `meta tables`.
func Tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables WHERE table_type = 'BASE TABLE' ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return names, nil
}

// Export reads every table into a map keyed by table name, for
// `meta export`: one JSON array per table under a top-level object.
func Export(ctx context.Context, db *sql.DB) (map[string][]Row, error) {
	names, err := Tables(ctx, db)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]Row, len(names))

	for _, name := range names {
		rows, err := Query(ctx, db, fmt.Sprintf(`SELECT * FROM %s`, name))
		if err != nil {
			return nil, err
		}

		out[name] = rows
	}

	return out, nil
}
