// Kingfisher - UPI fraud risk assessment that deploys in 60 seconds.
// Copyright (c) 2025 openupi
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/openupi/kingfisher/internal/api"
	"github.com/openupi/kingfisher/internal/assess"
	"github.com/openupi/kingfisher/internal/audit"
	"github.com/openupi/kingfisher/internal/bus"
	"github.com/openupi/kingfisher/internal/cache"
	"github.com/openupi/kingfisher/internal/domain"
	"github.com/openupi/kingfisher/internal/model"
	"github.com/openupi/kingfisher/internal/preprocess"
	"github.com/openupi/kingfisher/internal/rules"
	"github.com/openupi/kingfisher/internal/velocity"
	"github.com/openupi/kingfisher/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// .env is optional; real environment wins over file values
	_ = godotenv.Load()

	cfg := domain.FromEnv()

	logLevel := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting kingfisher",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"preprocessor", cfg.Artifacts.PreprocessorPath,
		"model", cfg.Artifacts.ModelPath,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load the fitted artifacts. Missing or incompatible artifacts are
	// fatal; the service never degrades to rules-only scoring.
	pre, err := preprocess.Load(cfg.Artifacts.PreprocessorPath)
	if err != nil {
		slog.Error("failed to load preprocessor artifact",
			"path", cfg.Artifacts.PreprocessorPath,
			"error", err,
		)
		os.Exit(1)
	}
	gbt, err := model.Load(cfg.Artifacts.ModelPath)
	if err != nil {
		slog.Error("failed to load model artifact",
			"path", cfg.Artifacts.ModelPath,
			"error", err,
		)
		os.Exit(1)
	}
	if gbt.NumFeatures != pre.Width() {
		slog.Error("artifact mismatch",
			"model_features", gbt.NumFeatures,
			"preprocessor_width", pre.Width(),
		)
		os.Exit(1)
	}
	slog.Info("artifacts loaded",
		"feature_width", pre.Width(),
		"trees", len(gbt.Trees),
	)

	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	velocitySvc := velocity.NewService(cacheImpl, time.Duration(cfg.Velocity.WindowSecs)*time.Second)
	slog.Info("velocity service initialized", "window_secs", cfg.Velocity.WindowSecs)

	engine, err := rules.NewEngine(velocitySvc.Getter(), 100)
	if err != nil {
		slog.Error("failed to initialize rule engine", "error", err)
		os.Exit(1)
	}
	if cfg.RulesFile != "" {
		if err := engine.LoadCustomRulesFile(cfg.RulesFile); err != nil {
			slog.Error("failed to load custom rules", "path", cfg.RulesFile, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("rule engine initialized", "custom_rules", engine.CustomRulesCount())

	auditLog := audit.NewLog()

	assessor := assess.New(pre, gbt, engine, auditLog, velocitySvc, busImpl, logger)

	// Async consumer of submitted transactions (Pro tier or opt-in)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("KINGFISHER_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, assessor, logger)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		}
	}

	srv := api.NewServer(cfg.Server, assessor, auditLog, cacheImpl, busImpl, engine, Version)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kingfisher is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	<-ctx.Done()
	slog.Info("shutting down...")

	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kingfisher shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║             🐦 KINGFISHER                 ║")
	fmt.Println("  ║     UPI Fraud Risk Assessment Engine      ║")
	fmt.Println("  ║       Sharp eyes. Fast strikes.           ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /assess   - Assess a transaction")
	fmt.Println("    GET  /audit    - Session risk monitor")
	fmt.Println("    GET  /rules    - Rule engine summary")
	fmt.Println("    GET  /health   - Health check")
	fmt.Println("    GET  /ready    - Readiness check")
	fmt.Println("    GET  /metrics  - Prometheus metrics")
	fmt.Println()
}
