package feed

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/errors"
	"github.com/higucxi/JobSearchApp/internal/models"
	"github.com/higucxi/JobSearchApp/internal/telemetry"
)

var tracer = telemetry.GetTracer("jobsearchapp/feed")

// Submitter batches scraped postings per source and forwards them to
// the aggregator's ingest endpoint. Batches flush when they reach the
// configured size and on a fixed interval.
type Submitter struct {
	client aggregator.Client
	logger *zap.Logger
	config *config.Config

	mutex   sync.Mutex
	pending map[string][]models.SourcePosting
	totals  models.IngestReport
}

func NewSubmitter(client aggregator.Client, logger *zap.Logger, config *config.Config) *Submitter {
	return &Submitter{
		client:  client,
		logger:  logger,
		config:  config,
		pending: make(map[string][]models.SourcePosting),
	}
}

// Enqueue adds a posting to its source's batch, flushing the batch
// when it reaches the configured size.
func (s *Submitter) Enqueue(ctx context.Context, posting models.SourcePosting) error {
	if !models.KnownSource(posting.Source) {
		return errors.InvalidInput("unknown posting source: "+posting.Source, nil)
	}

	s.mutex.Lock()
	s.pending[posting.Source] = append(s.pending[posting.Source], posting)
	full := len(s.pending[posting.Source]) >= s.config.IngestBatchSize
	s.mutex.Unlock()

	if full {
		return s.flushSource(ctx, posting.Source)
	}
	return nil
}

// Run flushes pending batches on the configured interval until ctx is
// canceled. Postings left pending at cancellation stay queued for a
// final Flush by the caller.
func (s *Submitter) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.Error("periodic flush failed", zap.Error(err))
			}
		}
	}
}

// Flush submits every pending batch. On failure the batch is requeued
// so the next flush retries it.
func (s *Submitter) Flush(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Submitter.Flush")
	defer span.End()

	s.mutex.Lock()
	sources := make([]string, 0, len(s.pending))
	for source := range s.pending {
		sources = append(sources, source)
	}
	s.mutex.Unlock()

	var firstErr error
	for _, source := range sources {
		if err := s.flushSource(ctx, source); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Totals reports the accumulated ingest results across all flushes.
func (s *Submitter) Totals() models.IngestReport {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.totals
}

func (s *Submitter) flushSource(ctx context.Context, source string) error {
	ctx, span := tracer.Start(ctx, "Submitter.flushSource")
	defer span.End()
	span.SetAttributes(telemetry.String("ingest.source", source))

	s.mutex.Lock()
	batch := s.pending[source]
	delete(s.pending, source)
	s.mutex.Unlock()

	if len(batch) == 0 {
		return nil
	}
	span.SetAttributes(telemetry.Int("ingest.count", len(batch)))

	report, err := s.client.IngestJobs(ctx, models.IngestRequest{
		Source: source,
		Jobs:   batch,
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("ingest batch failed, requeueing",
			zap.String("source", source),
			zap.Int("count", len(batch)),
			zap.Error(err))

		s.mutex.Lock()
		s.pending[source] = append(batch, s.pending[source]...)
		s.mutex.Unlock()
		return err
	}

	s.mutex.Lock()
	s.totals.Inserted += report.Inserted
	s.totals.Merged += report.Merged
	s.totals.TotalProcessed += report.TotalProcessed
	s.mutex.Unlock()

	s.logger.Info("ingest batch submitted",
		zap.String("source", source),
		zap.Int("inserted", report.Inserted),
		zap.Int("merged", report.Merged))

	return nil
}
