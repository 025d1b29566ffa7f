package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openupi/kingfisher/internal/dataset"
	"github.com/openupi/kingfisher/internal/features"
	"github.com/openupi/kingfisher/internal/model"
	"github.com/openupi/kingfisher/internal/preprocess"
)

// BatchConfig describes one batch scoring run.
type BatchConfig struct {
	Source dataset.SourceConfig

	PreprocessorPath string
	ModelPath        string

	// OutputPath receives the input rows plus a fraud_probability column.
	OutputPath string
}

// BatchReport summarizes a completed batch scoring run.
type BatchReport struct {
	Rows       int
	OutputPath string
}

// Batch scores a full dataset with fitted artifacts. Any failure aborts
// the run; the output file is written atomically so a failed run leaves
// no partial output.
func Batch(ctx context.Context, cfg BatchConfig, logger *slog.Logger) (*BatchReport, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pre, err := preprocess.Load(cfg.PreprocessorPath)
	if err != nil {
		return nil, fmt.Errorf("load preprocessor: %w", err)
	}
	gbt, err := model.Load(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if gbt.NumFeatures != pre.Width() {
		return nil, fmt.Errorf("artifact mismatch: model expects %d features, preprocessor produces %d", gbt.NumFeatures, pre.Width())
	}

	src, err := dataset.New(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("open dataset source: %w", err)
	}
	defer src.Close()

	table, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	if err := dataset.Validate(table, false); err != nil {
		return nil, err
	}

	txs, err := table.ToTransactions()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	frame, err := features.Engineer(txs)
	if err != nil {
		return nil, fmt.Errorf("feature engineering: %w", err)
	}

	X, err := pre.Transform(frame)
	if err != nil {
		return nil, fmt.Errorf("preprocess: %w", err)
	}

	probs, err := gbt.PredictProba(X)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	if err := dataset.WriteScoredCSV(cfg.OutputPath, table, probs); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	logger.Info("batch scoring complete",
		"rows", len(probs),
		"output", cfg.OutputPath,
	)

	return &BatchReport{Rows: len(probs), OutputPath: cfg.OutputPath}, nil
}
