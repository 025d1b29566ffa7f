// Package pipeline implements the offline training and batch scoring runs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/openupi/kingfisher/internal/dataset"
	"github.com/openupi/kingfisher/internal/features"
	"github.com/openupi/kingfisher/internal/model"
	"github.com/openupi/kingfisher/internal/preprocess"
)

// TrainConfig describes one training run.
type TrainConfig struct {
	Source dataset.SourceConfig

	// TestFraction of rows held out for evaluation.
	TestFraction float64

	// Seed drives the stratified split.
	Seed int64

	Model model.Config

	// PreprocessorPath is where the fitted preprocessor artifact is written.
	// If ReusePreprocessor is set, an existing artifact is loaded instead of
	// fitting a new one.
	PreprocessorPath  string
	ReusePreprocessor bool

	// ModelPath is where the trained model artifact is written.
	ModelPath string
}

// TrainReport summarizes a completed training run.
type TrainReport struct {
	Rows         int
	TrainRows    int
	TestRows     int
	FraudRate    float64
	FeatureWidth int
	AUC          float64
}

// Train runs the full offline training pipeline. Any failure aborts the
// run before artifacts are written; artifacts are only persisted after
// evaluation succeeds.
func Train(ctx context.Context, cfg TrainConfig, logger *slog.Logger) (*TrainReport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TestFraction == 0 {
		cfg.TestFraction = 0.2
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
	logger.Info("dataset loaded", "rows", len(table.Rows), "columns", len(table.Columns))

	if err := dataset.Validate(table, true); err != nil {
		return nil, err
	}

	txs, err := table.ToTransactions()
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}

	labels := make([]int, len(txs))
	fraudCount := 0
	for i, tx := range txs {
		labels[i] = tx.FraudFlag
		if tx.FraudFlag == 1 {
			fraudCount++
		}
	}

	frame, err := features.Engineer(txs)
	if err != nil {
		return nil, fmt.Errorf("feature engineering: %w", err)
	}

	pre, err := resolvePreprocessor(cfg, frame, logger)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := SplitIndices(labels, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}

	trainX, err := pre.Transform(frame.Select(trainIdx))
	if err != nil {
		return nil, fmt.Errorf("transform train split: %w", err)
	}
	testX, err := pre.Transform(frame.Select(testIdx))
	if err != nil {
		return nil, fmt.Errorf("transform test split: %w", err)
	}
	trainY := selectLabels(labels, trainIdx)
	testY := selectLabels(labels, testIdx)

	logger.Info("training model",
		"train_rows", len(trainX),
		"test_rows", len(testX),
		"feature_width", pre.Width(),
		"trees", cfg.Model.Trees,
		"max_depth", cfg.Model.MaxDepth,
	)

	gbt, err := model.Train(trainX, trainY, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}

	scores, err := gbt.PredictProba(testX)
	if err != nil {
		return nil, fmt.Errorf("score test split: %w", err)
	}

	auc, err := model.AUC(testY, scores)
	if err != nil {
		return nil, fmt.Errorf("evaluate model: %w", err)
	}
	logger.Info("evaluation complete", "auc", auc)

	if !cfg.ReusePreprocessor {
		if err := pre.Save(cfg.PreprocessorPath); err != nil {
			return nil, fmt.Errorf("save preprocessor: %w", err)
		}
	}
	if err := gbt.Save(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}
	logger.Info("artifacts written",
		"preprocessor", cfg.PreprocessorPath,
		"model", cfg.ModelPath,
	)

	return &TrainReport{
		Rows:         len(txs),
		TrainRows:    len(trainX),
		TestRows:     len(testX),
		FraudRate:    float64(fraudCount) / float64(len(txs)),
		FeatureWidth: pre.Width(),
		AUC:          auc,
	}, nil
}

// resolvePreprocessor either fits a fresh preprocessor on the full frame
// or loads an existing artifact. A fitted preprocessor is never refit on
// individual splits.
func resolvePreprocessor(cfg TrainConfig, frame *features.Frame, logger *slog.Logger) (*preprocess.Preprocessor, error) {
	if cfg.ReusePreprocessor {
		if _, err := os.Stat(cfg.PreprocessorPath); err != nil {
			return nil, fmt.Errorf("preprocessor artifact not found at %s: %w", cfg.PreprocessorPath, err)
		}
		pre, err := preprocess.Load(cfg.PreprocessorPath)
		if err != nil {
			return nil, fmt.Errorf("load preprocessor: %w", err)
		}
		logger.Info("reusing existing preprocessor", "path", cfg.PreprocessorPath, "width", pre.Width())
		return pre, nil
	}

	pre, err := preprocess.Fit(frame)
	if err != nil {
		return nil, fmt.Errorf("fit preprocessor: %w", err)
	}
	logger.Info("preprocessor fitted", "width", pre.Width())
	return pre, nil
}
