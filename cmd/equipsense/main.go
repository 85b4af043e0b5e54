package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/equipsense/equipsense/internal/config"
	"github.com/equipsense/equipsense/internal/dataset"
	"github.com/equipsense/equipsense/internal/lifecycle"
	"github.com/equipsense/equipsense/pkg/logger"
)

func main() {
	force := flag.Bool("force", false, "skip the criteria check and retrain unconditionally")
	checkOnly := flag.Bool("check-only", false, "evaluate retraining criteria and exit without training")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.LoadConfig()

	zapLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	// The whole run is bounded by a wall-clock cap; an overrunning cycle
	// aborts without touching the production artifact.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, counter := buildProviders(cfg, sugar)
	if len(providers) == 0 {
		sugar.Fatal("no data providers configured")
	}
	resolver := dataset.NewResolver(sugar, providers...)

	manager := lifecycle.NewManager(cfg, sugar, resolver, counter)

	if *checkOnly {
		crit := manager.CheckCriteria(ctx)
		sugar.Infow("retraining criteria evaluated",
			"needs_retraining", crit.NeedsRetraining,
			"reasons", crit.Reasons,
			"days_since_training", crit.DaysSinceTraining,
			"new_data_points", crit.NewDataPoints,
		)
		fmt.Printf("needs_retraining=%v\n", crit.NeedsRetraining)
		return
	}

	report, err := manager.Run(ctx, lifecycle.RunOptions{Force: *force})
	if err != nil {
		var promoErr *lifecycle.PromotionIOError
		if errors.As(err, &promoErr) {
			sugar.Errorw("promotion failed in critical section",
				"op", promoErr.Op, "rolled_back", promoErr.RolledBack, zap.Error(err))
		} else {
			sugar.Errorw("lifecycle run failed", zap.Error(err))
		}
		os.Exit(1)
	}

	sugar.Infow("lifecycle run finished", "status", report.Status, "run_id", report.RunID)
}

// buildProviders wires the configured data sources in resolution order:
// the structured store first, flat-file fallbacks after. A store that
// cannot be opened is skipped with a warning; the flat files may still
// carry usable data.
func buildProviders(cfg *config.Config, sugar *zap.SugaredLogger) ([]dataset.Provider, lifecycle.RowCounter) {
	var providers []dataset.Provider
	var counter lifecycle.RowCounter

	if cfg.DBPath != "" {
		store, err := dataset.NewSQLiteProvider(cfg.DBPath)
		if err != nil {
			sugar.Warnw("could not open structured store, falling back to flat files",
				"path", cfg.DBPath, "error", err)
		} else {
			providers = append(providers, store)
			counter = store
		}
	}
	for _, path := range cfg.CSVPaths {
		providers = append(providers, dataset.NewCSVProvider(path))
	}
	return providers, counter
}
