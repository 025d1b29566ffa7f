// Kingfisher - UPI fraud risk assessment that deploys in 60 seconds.
// Copyright (c) 2025 openupi
// Licensed under the Apache License 2.0

// Command train fits the preprocessor and classifier on a labeled dataset
// and writes both artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/openupi/kingfisher/internal/dataset"
	"github.com/openupi/kingfisher/internal/model"
	"github.com/openupi/kingfisher/internal/pipeline"
)

func main() {
	var (
		driver       = flag.String("driver", "csv", "dataset source driver: csv, sqlite, postgres")
		input        = flag.String("input", "", "path to CSV file or sqlite database")
		dsn          = flag.String("dsn", "", "postgres connection string")
		table        = flag.String("table", "", "table name for sql drivers")
		outPre       = flag.String("preprocessor", "./models/preprocessor.json", "output path for the preprocessor artifact")
		outModel     = flag.String("model", "./models/gbt_model.json", "output path for the model artifact")
		reusePre     = flag.Bool("reuse-preprocessor", false, "load the existing preprocessor artifact instead of fitting")
		testFraction = flag.Float64("test-fraction", 0.2, "held-out fraction for evaluation")
		seed         = flag.Int64("seed", 42, "split seed")
		trees        = flag.Int("trees", 0, "number of boosting rounds (0 = default)")
		maxDepth     = flag.Int("max-depth", 0, "maximum tree depth (0 = default)")
		learningRate = flag.Float64("learning-rate", 0, "shrinkage per round (0 = default)")
	)
	flag.Parse()

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if *input == "" && *dsn == "" {
		fmt.Fprintln(os.Stderr, "either -input or -dsn is required")
		flag.Usage()
		os.Exit(2)
	}

	modelCfg := model.DefaultConfig()
	if *trees > 0 {
		modelCfg.Trees = *trees
	}
	if *maxDepth > 0 {
		modelCfg.MaxDepth = *maxDepth
	}
	if *learningRate > 0 {
		modelCfg.LearningRate = *learningRate
	}

	cfg := pipeline.TrainConfig{
		Source: dataset.SourceConfig{
			Driver: *driver,
			Path:   *input,
			DSN:    *dsn,
			Table:  *table,
		},
		TestFraction:      *testFraction,
		Seed:              *seed,
		Model:             modelCfg,
		PreprocessorPath:  *outPre,
		ReusePreprocessor: *reusePre,
		ModelPath:         *outModel,
	}

	report, err := pipeline.Train(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("rows:          %d\n", report.Rows)
	fmt.Printf("train rows:    %d\n", report.TrainRows)
	fmt.Printf("test rows:     %d\n", report.TestRows)
	fmt.Printf("fraud rate:    %.4f\n", report.FraudRate)
	fmt.Printf("feature width: %d\n", report.FeatureWidth)
	fmt.Printf("test AUC:      %.4f\n", report.AUC)
}
