// Package model implements the gradient-boosted binary classifier and its
// artifact persistence. Trained once by the training pipeline and loaded
// read-only by every inference path.
package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Config holds training hyperparameters. Training is deterministic for a
// fixed config: split search is exact greedy with stable tie-breaking.
type Config struct {
	Trees        int     `json:"trees"`
	MaxDepth     int     `json:"maxDepth"`
	LearningRate float64 `json:"learningRate"`
	MinLeaf      int     `json:"minLeaf"`
	Lambda       float64 `json:"lambda"`
	Seed         int64   `json:"seed"`
}

// DefaultConfig returns the production training configuration.
func DefaultConfig() Config {
	return Config{
		Trees:        300,
		MaxDepth:     6,
		LearningRate: 0.08,
		MinLeaf:      5,
		Lambda:       1.0,
		Seed:         42,
	}
}

// GBT is a fitted gradient-boosted tree ensemble with logistic loss.
// Immutable after training.
type GBT struct {
	Bias         float64 `json:"bias"`
	LearningRate float64 `json:"learningRate"`
	NumFeatures  int     `json:"numFeatures"`
	Trees        []Tree  `json:"trees"`
	Seed         int64   `json:"seed"`
}

// Train fits the ensemble on a transformed numeric matrix and binary labels.
func Train(X [][]float64, y []int, cfg Config) (*GBT, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("empty training matrix")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("got %d rows and %d labels", len(X), len(y))
	}
	if cfg.Trees <= 0 || cfg.MaxDepth <= 0 || cfg.LearningRate <= 0 {
		return nil, fmt.Errorf("invalid training config: %+v", cfg)
	}
	if cfg.MinLeaf <= 0 {
		cfg.MinLeaf = 1
	}

	n := len(X)
	numFeatures := len(X[0])

	var pos int
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("label %d at row %d is not binary", label, i)
		}
		if len(X[i]) != numFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(X[i]), numFeatures)
		}
		pos += label
	}

	base := clampProb(float64(pos) / float64(n))
	m := &GBT{
		Bias:         math.Log(base / (1 - base)),
		LearningRate: cfg.LearningRate,
		NumFeatures:  numFeatures,
		Trees:        make([]Tree, 0, cfg.Trees),
		Seed:         cfg.Seed,
	}

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = m.Bias
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	builder := &treeBuilder{
		X:         X,
		grad:      grad,
		hess:      hess,
		maxDepth:  cfg.MaxDepth,
		minLeaf:   cfg.MinLeaf,
		lambda:    cfg.Lambda,
		shrinkage: cfg.LearningRate,
	}

	for t := 0; t < cfg.Trees; t++ {
		for i := 0; i < n; i++ {
			p := sigmoid(raw[i])
			grad[i] = p - float64(y[i])
			hess[i] = p * (1 - p)
		}

		tree := builder.build(indices)
		m.Trees = append(m.Trees, tree)

		for i := 0; i < n; i++ {
			raw[i] += tree.predict(X[i])
		}
	}

	return m, nil
}

// PredictProba returns the fraud probability per row, each in [0,1].
func (m *GBT) PredictProba(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		p, err := m.PredictOne(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// PredictOne scores a single transformed feature vector.
func (m *GBT) PredictOne(row []float64) (float64, error) {
	if len(row) != m.NumFeatures {
		return 0, fmt.Errorf("feature vector has %d columns, model expects %d", len(row), m.NumFeatures)
	}
	raw := m.Bias
	for i := range m.Trees {
		raw += m.Trees[i].predict(row)
	}
	return sigmoid(raw), nil
}

// Save serializes the fitted ensemble to a JSON artifact.
func (m *GBT) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	return nil
}

// Load reads a fitted model artifact. Missing or corrupt artifacts are
// errors the caller must treat as fatal at startup.
func Load(path string) (*GBT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}
	var m GBT
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corrupt model artifact %s: %w", path, err)
	}
	if m.NumFeatures <= 0 || len(m.Trees) == 0 {
		return nil, fmt.Errorf("corrupt model artifact %s: empty ensemble", path)
	}
	return &m, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clampProb(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}
