package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteScoredCSV writes the input table plus an appended fraud_probability
// column. The file is written whole or not at all: output goes to a
// temporary file renamed into place only after every row succeeded.
func WriteScoredCSV(path string, table *Table, probabilities []float64) error {
	if len(probabilities) != len(table.Rows) {
		return fmt.Errorf("got %d probabilities for %d rows", len(probabilities), len(table.Rows))
	}

	// Same directory as the destination so the rename stays on one filesystem
	tmp, err := os.CreateTemp(filepath.Dir(path), ".kingfisher-scored-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)

	header := append(append([]string(nil), table.Columns...), "fraud_probability")
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range table.Rows {
		out := append(append([]string(nil), row...), strconv.FormatFloat(probabilities[i], 'f', 6, 64))
		if err := w.Write(out); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
