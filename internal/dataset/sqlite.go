package dataset

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// openSQLiteSource opens a SQLite-backed dataset source.
// Uses modernc.org/sqlite for pure Go implementation (no CGO required).
func openSQLiteSource(cfg SourceConfig) (Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite dataset source requires a path")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", cfg.Path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &sqlSource{db: db, driver: "sqlite", table: cfg.tableName()}, nil
}
