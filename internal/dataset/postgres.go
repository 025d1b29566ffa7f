package dataset

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// openPostgresSource opens a PostgreSQL-backed dataset source.
func openPostgresSource(cfg SourceConfig) (Source, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dataset source requires a DSN")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	return &sqlSource{db: db, driver: "postgres", table: cfg.tableName()}, nil
}
