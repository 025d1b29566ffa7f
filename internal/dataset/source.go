package dataset

import (
	"context"
	"fmt"
)

// Source loads a raw transaction table from a backing store.
type Source interface {
	// Load reads the full raw table.
	Load(ctx context.Context) (*Table, error)

	// Lifecycle
	Close() error
}

// SourceConfig selects and configures a dataset source.
type SourceConfig struct {
	// Driver is "csv", "sqlite", or "postgres".
	Driver string

	// Path is the CSV file or SQLite database path.
	Path string

	// DSN is the PostgreSQL connection string.
	DSN string

	// Table is the table name for SQL drivers. Defaults to "upi_transactions".
	Table string
}

// New creates a dataset source based on configuration.
func New(cfg SourceConfig) (Source, error) {
	switch cfg.Driver {
	case "", "csv":
		return NewCSVSource(cfg.Path), nil
	case "sqlite":
		return openSQLiteSource(cfg)
	case "postgres":
		return openPostgresSource(cfg)
	default:
		return nil, fmt.Errorf("unsupported dataset driver: %s", cfg.Driver)
	}
}

func (c SourceConfig) tableName() string {
	if c.Table == "" {
		return "upi_transactions"
	}
	return c.Table
}
