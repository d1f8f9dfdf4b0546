package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/feed"
)

func main() {
	file := flag.String("file", "", "postings file to submit (JSON)")
	source := flag.String("source", "", "batch source for bare posting arrays")
	flag.Parse()

	if *file == "" && flag.NArg() > 0 {
		*file = flag.Arg(0)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: ingest [-source name] [-file] postings.json")
		os.Exit(2)
	}

	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	request, err := feed.ReadPostingsFile(*file, *source)
	if err != nil {
		logger.Fatal("failed to read postings file",
			zap.String("file", *file),
			zap.Error(err))
	}

	logger.Info("submitting postings",
		zap.String("file", *file),
		zap.String("source", request.Source),
		zap.Int("jobs", len(request.Jobs)))

	client := aggregator.NewClient(logger, cfg)

	healthCtx, cancelHealth := context.WithTimeout(context.Background(), cfg.APITimeout)
	defer cancelHealth()
	if err := client.Health(healthCtx); err != nil {
		logger.Fatal("aggregator not reachable",
			zap.String("url", cfg.AggregatorBaseURL),
			zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout)
	defer cancel()

	report, err := client.IngestJobs(ctx, *request)
	if err != nil {
		logger.Fatal("ingest failed", zap.Error(err))
	}

	fmt.Printf("processed %d postings: %d inserted, %d merged\n",
		report.TotalProcessed, report.Inserted, report.Merged)
}
