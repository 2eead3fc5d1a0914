// Command preprocess cleans a raw listings export into the canonical
// training table and freezes the feature schema pair next to the models.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	internalrepo "RentWise/internal/repository"
	"RentWise/internal/services/cleaning"
	"RentWise/internal/usecase"
	"RentWise/pkg/config"
	applogger "RentWise/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "optional config file; cleaning and artifacts sections are used")
	input := flag.String("input", "data/rentfaster.csv", "raw listings CSV")
	output := flag.String("output", "data/cleaned.csv", "canonical table CSV")
	artifacts := flag.String("artifacts", "", "artifacts directory (overrides config)")
	version := flag.String("version", "", "schema version (default: UTC timestamp)")
	frozenMedian := flag.Float64("frozen-median", 0, "use this square footage median instead of computing it")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *artifacts != "" {
		cfg.Artifacts.Dir = *artifacts
	}

	logger, err := applogger.New(&applogger.Config{Level: cfg.Logging.Level, Format: "console", Output: "stderr"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	opts := cleaning.Options{
		LocaleField:    cfg.Cleaning.LocaleField,
		TargetLocale:   cfg.Cleaning.TargetLocale,
		PriceField:     cfg.Cleaning.PriceField,
		ExcludedFields: cfg.Cleaning.ExcludedFields,
	}
	if *frozenMedian > 0 {
		m := *frozenMedian
		opts.FrozenMedian = &m
	}

	store := internalrepo.NewArtifactStore(cfg.Artifacts.Dir, cfg.Artifacts.SchemaFile, cfg.Artifacts.ModelsFile)
	p := usecase.NewPreprocessor(
		internalrepo.NewCSVDatasetSource(*input),
		internalrepo.NewCSVDatasetSink(*output),
		store,
		cleaning.NewPipeline(opts, logger),
		*version,
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, reg, err := p.Run(ctx)
	if err != nil {
		logger.Error("preprocess failed", applogger.String("input", *input), applogger.Error(err))
		os.Exit(1)
	}

	r := res.Report
	logger.Info("cleaning report",
		applogger.Int("input_rows", r.InputRows),
		applogger.Int("locale_dropped", r.LocaleDropped),
		applogger.Int("critical_dropped", r.CriticalDropped),
		applogger.Int("admitted_rows", r.AdmittedRows),
		applogger.Int("sq_feet_imputed", r.SqFeetImputed),
		applogger.Float64("sq_feet_median", r.SqFeetMedian),
		applogger.Int("numeric_gaps", r.NumericGaps),
		applogger.Float64("price_min", r.PriceMin),
		applogger.Float64("price_max", r.PriceMax),
		applogger.Float64("price_mean", r.PriceMean))
	logger.Info("artifacts written",
		applogger.String("table", *output),
		applogger.String("schema", store.SchemaPath()),
		applogger.String("schema_version", reg.Version),
		applogger.String("digest", reg.Digest()))
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}
