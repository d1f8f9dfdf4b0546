package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/ui"
)

// newLogger writes to the configured log file. The terminal belongs to
// the UI, so without a file structured logs are dropped.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogFile == "" {
		return zap.NewNop(), nil
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.OutputPaths = []string{cfg.LogFile}
	zapConfig.ErrorOutputPaths = []string{cfg.LogFile}
	return zapConfig.Build()
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting jobsearch",
		zap.String("aggregator_url", cfg.AggregatorBaseURL),
		zap.Duration("api_timeout", cfg.APITimeout))

	client := aggregator.NewClient(logger, cfg)

	if err := ui.Run(client, cfg, logger); err != nil {
		logger.Error("ui exited", zap.Error(err))
		log.Fatalf("jobsearch: %v", err)
	}
}
