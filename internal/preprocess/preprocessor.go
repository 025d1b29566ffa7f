// Package preprocess provides the fitted column transform: numeric
// standardization plus categorical one-hot encoding. Fit runs once at
// training time; Transform replays the exact fitted parameters everywhere
// else.
package preprocess

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/openupi/kingfisher/internal/features"
)

var (
	// ErrSchemaMismatch indicates the incoming feature frame does not match
	// the schema the preprocessor was fitted on. Column misalignment would
	// silently corrupt every downstream score, so this is checked explicitly
	// before any math runs.
	ErrSchemaMismatch = errors.New("feature schema does not match fitted preprocessor")

	// ErrNotFitted indicates Transform was called before Fit or Load.
	ErrNotFitted = errors.New("preprocessor is not fitted")
)

// Preprocessor holds the fitted transform state. Immutable after fitting:
// Transform never writes to any field.
type Preprocessor struct {
	NumericCols     []string `json:"numericCols"`
	CategoricalCols []string `json:"categoricalCols"`

	// Means and Scales are per numeric column, in column order.
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`

	// Vocab holds the sorted category vocabulary per categorical column.
	Vocab [][]string `json:"vocab"`
}

// Fit learns standardization parameters and category vocabularies from a
// training feature frame. Called exactly once per model lifecycle.
func Fit(frame *features.Frame) (*Preprocessor, error) {
	if frame.Rows() == 0 {
		return nil, fmt.Errorf("cannot fit preprocessor on empty frame")
	}

	p := &Preprocessor{
		NumericCols:     append([]string(nil), frame.NumericCols...),
		CategoricalCols: append([]string(nil), frame.CategoricalCols...),
		Means:           make([]float64, len(frame.NumericCols)),
		Scales:          make([]float64, len(frame.NumericCols)),
		Vocab:           make([][]string, len(frame.CategoricalCols)),
	}

	n := float64(frame.Rows())

	for j := range frame.NumericCols {
		var sum float64
		for _, row := range frame.Numeric {
			sum += row[j]
		}
		mean := sum / n

		var sqDiff float64
		for _, row := range frame.Numeric {
			d := row[j] - mean
			sqDiff += d * d
		}
		scale := math.Sqrt(sqDiff / n)
		if scale == 0 {
			// Constant column: divide by 1 so the standardized value is 0.
			scale = 1
		}

		p.Means[j] = mean
		p.Scales[j] = scale
	}

	for j := range frame.CategoricalCols {
		seen := make(map[string]struct{})
		for _, row := range frame.Categorical {
			seen[row[j]] = struct{}{}
		}
		vocab := make([]string, 0, len(seen))
		for v := range seen {
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)
		p.Vocab[j] = vocab
	}

	return p, nil
}

// Width returns the number of output columns: one per numeric column plus
// one indicator per known category value.
func (p *Preprocessor) Width() int {
	w := len(p.NumericCols)
	for _, vocab := range p.Vocab {
		w += len(vocab)
	}
	return w
}

// Transform applies the fitted parameters to a feature frame and returns the
// numeric matrix the classifier expects. Pure given the fitted state.
// Category values unseen at fit time produce an all-zero indicator block for
// that column; they never raise.
func (p *Preprocessor) Transform(frame *features.Frame) ([][]float64, error) {
	if len(p.Means) == 0 && len(p.Vocab) == 0 {
		return nil, ErrNotFitted
	}
	if err := p.checkSchema(frame); err != nil {
		return nil, err
	}

	width := p.Width()
	out := make([][]float64, frame.Rows())

	for i := 0; i < frame.Rows(); i++ {
		row := make([]float64, 0, width)

		for j := range p.NumericCols {
			row = append(row, (frame.Numeric[i][j]-p.Means[j])/p.Scales[j])
		}

		for j := range p.CategoricalCols {
			val := frame.Categorical[i][j]
			block := make([]float64, len(p.Vocab[j]))
			if k, ok := vocabIndex(p.Vocab[j], val); ok {
				block[k] = 1
			}
			row = append(row, block...)
		}

		out[i] = row
	}

	return out, nil
}

// checkSchema verifies column names and order match the fitted schema
// exactly. Name, count, or order drift all fail here.
func (p *Preprocessor) checkSchema(frame *features.Frame) error {
	if len(frame.NumericCols) != len(p.NumericCols) || len(frame.CategoricalCols) != len(p.CategoricalCols) {
		return fmt.Errorf("%w: fitted on %d numeric + %d categorical columns, got %d + %d",
			ErrSchemaMismatch, len(p.NumericCols), len(p.CategoricalCols),
			len(frame.NumericCols), len(frame.CategoricalCols))
	}
	for j, name := range p.NumericCols {
		if frame.NumericCols[j] != name {
			return fmt.Errorf("%w: numeric column %d is %q, fitted as %q",
				ErrSchemaMismatch, j, frame.NumericCols[j], name)
		}
	}
	for j, name := range p.CategoricalCols {
		if frame.CategoricalCols[j] != name {
			return fmt.Errorf("%w: categorical column %d is %q, fitted as %q",
				ErrSchemaMismatch, j, frame.CategoricalCols[j], name)
		}
	}
	return nil
}

// vocabIndex finds val in a sorted vocabulary.
func vocabIndex(vocab []string, val string) (int, bool) {
	i := sort.SearchStrings(vocab, val)
	if i < len(vocab) && vocab[i] == val {
		return i, true
	}
	return 0, false
}

// Save serializes the fitted state to a JSON artifact.
func (p *Preprocessor) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode preprocessor: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write preprocessor artifact: %w", err)
	}
	return nil
}

// Load reads a fitted preprocessor artifact. A missing or corrupt artifact
// is an error the caller must treat as fatal; there is no unscored fallback.
func Load(path string) (*Preprocessor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preprocessor artifact %s: %w", path, err)
	}
	var p Preprocessor
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("corrupt preprocessor artifact %s: %w", path, err)
	}
	if len(p.NumericCols) != len(p.Means) || len(p.NumericCols) != len(p.Scales) {
		return nil, fmt.Errorf("corrupt preprocessor artifact %s: parameter length mismatch", path)
	}
	if len(p.CategoricalCols) != len(p.Vocab) {
		return nil, fmt.Errorf("corrupt preprocessor artifact %s: vocabulary length mismatch", path)
	}
	return &p, nil
}
