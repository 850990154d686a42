package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"covid-pipeline/internal/chart"
	"covid-pipeline/internal/config"
	"covid-pipeline/internal/logging"
	"covid-pipeline/internal/pipeline"
	"covid-pipeline/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		slog.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; the environment always wins.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if envErr != nil {
		slog.Debug("no .env file found, using process environment")
	}
	slog.Debug("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder pipeline.Recorder
	var db *store.Store
	if cfg.Store.StoreEnabled() {
		db, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return fmt.Errorf("open run store: %w", err)
		}
		defer db.Close()
		recorder = db
	}

	display := chart.NewDisplay(chart.Options{
		Dir:       cfg.Chart.Dir,
		Open:      cfg.Chart.Open,
		Snapshot:  cfg.Chart.Snapshot,
		ChromeBin: cfg.Chart.ChromeBin,
	})

	p := pipeline.New(pipeline.Options{
		Source:       pipeline.Source{URL: cfg.Source.URL, Timeout: cfg.Source.Timeout},
		FocusCountry: cfg.Analysis.FocusCountry,
		TopN:         cfg.Analysis.TopN,
		ExportFile:   cfg.Export.File,
	}, recorder, display, os.Stdout)

	if db != nil && cfg.Store.Observations {
		p.WithObservationSink(db, db.Driver())
	}

	runID := pipeline.NewRunID()
	if _, err := p.Run(ctx, runID); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	if db != nil {
		rec, err := db.GetRun(ctx, runID)
		if err != nil {
			slog.Warn("could not read back run", "run_id", runID, "error", err)
			return nil
		}
		slog.Info("run recorded", "run_id", rec.ID, "status", rec.Status, "countries", rec.Countries, "global_max", rec.GlobalMax)
	}
	return nil
}
