package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource loads a raw transaction table from a CSV file with a header row.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV-backed dataset source.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Load reads the whole file into a Table.
func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("data file not found at %s: %w", s.path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// Close is a no-op; the file handle does not outlive Load.
func (s *CSVSource) Close() error {
	return nil
}

// ReadCSV parses a header-prefixed CSV stream into a Table.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &Table{Columns: header}
	lineNum := 1
	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
