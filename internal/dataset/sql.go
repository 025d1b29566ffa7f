package dataset

import (
	"context"
	"database/sql"
	"fmt"
)

// sqlSource loads a raw transaction table from a SQL database. Works with
// both the SQLite and PostgreSQL drivers.
type sqlSource struct {
	db     *sql.DB
	driver string
	table  string
}

// Load reads every row of the configured table, preserving the column order
// the database reports.
func (s *sqlSource) Load(ctx context.Context) (*Table, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+s.table)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	table := &Table{Columns: cols}
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]string, len(cols))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return table, nil
}

// Close closes the underlying database handle.
func (s *sqlSource) Close() error {
	return s.db.Close()
}
