// Kingfisher - UPI fraud risk assessment that deploys in 60 seconds.
// Copyright (c) 2025 openupi
// Licensed under the Apache License 2.0

// Command predict scores a dataset with fitted artifacts and writes the
// input rows plus a fraud_probability column.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/openupi/kingfisher/internal/dataset"
	"github.com/openupi/kingfisher/internal/pipeline"
)

func main() {
	var (
		driver   = flag.String("driver", "csv", "dataset source driver: csv, sqlite, postgres")
		input    = flag.String("input", "", "path to CSV file or sqlite database")
		dsn      = flag.String("dsn", "", "postgres connection string")
		table    = flag.String("table", "", "table name for sql drivers")
		inPre    = flag.String("preprocessor", "./models/preprocessor.json", "path to the preprocessor artifact")
		inModel  = flag.String("model", "./models/gbt_model.json", "path to the model artifact")
		output   = flag.String("output", "scored.csv", "output CSV path")
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

	cfg := pipeline.BatchConfig{
		Source: dataset.SourceConfig{
			Driver: *driver,
			Path:   *input,
			DSN:    *dsn,
			Table:  *table,
		},
		PreprocessorPath: *inPre,
		ModelPath:        *inModel,
		OutputPath:       *output,
	}

	report, err := pipeline.Batch(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("batch scoring failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("scored %d rows -> %s\n", report.Rows, report.OutputPath)
}
