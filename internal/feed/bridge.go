package feed

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/cache"
	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/models"
	"github.com/higucxi/JobSearchApp/internal/telemetry"
)

// Bridge consumes scraped postings off NATS and feeds them to the
// aggregator through a Submitter. A redis-backed seen set drops
// postings already forwarded within the TTL window.
type Bridge struct {
	logger    *zap.Logger
	nc        *nats.Conn
	tracer    trace.Tracer
	submitter *Submitter
	seen      cache.Cache
	config    *config.Config
	sub       *nats.Subscription
	cancelRun context.CancelFunc
}

func NewBridge(logger *zap.Logger, nc *nats.Conn, tracer trace.Tracer, submitter *Submitter, seen cache.Cache, config *config.Config) *Bridge {
	return &Bridge{
		logger:    logger,
		nc:        nc,
		tracer:    tracer,
		submitter: submitter,
		seen:      seen,
		config:    config,
	}
}

func (b *Bridge) RegisterSubscriptions(lc fx.Lifecycle) error {
	sub, err := b.nc.QueueSubscribe(b.config.IngestSubject, b.config.IngestQueueGroup, b.handlePosting)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.config.IngestSubject, err)
	}
	b.sub = sub

	runCtx, cancel := context.WithCancel(context.Background())
	b.cancelRun = cancel
	go func() {
		if err := b.submitter.Run(runCtx); err != nil && !stderrors.Is(err, context.Canceled) {
			b.logger.Error("flush loop stopped", zap.Error(err))
		}
	}()

	b.logger.Info("Registered NATS subscriptions",
		zap.String("subject", b.config.IngestSubject),
		zap.String("queue_group", b.config.IngestQueueGroup))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := b.sub.Unsubscribe(); err != nil {
				return err
			}
			b.cancelRun()
			return b.submitter.Flush(ctx)
		},
	})

	return nil
}

func (b *Bridge) handlePosting(msg *nats.Msg) {
	ctx, span := b.tracer.Start(context.Background(), "handlePosting")
	defer span.End()

	var posting models.SourcePosting
	if err := json.Unmarshal(msg.Data, &posting); err != nil {
		span.RecordError(err)
		b.logger.Error("Failed to decode posting",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
		return
	}

	stored, err := b.seen.Add(ctx, "ingest:seen:"+posting.Key(), "1", b.config.SeenTTL)
	if err != nil {
		// A broken seen set must not drop postings; the aggregator
		// dedups on its side too.
		span.RecordError(err)
		b.logger.Warn("seen set unavailable, forwarding anyway", zap.Error(err))
	} else if !stored {
		span.SetAttributes(telemetry.String("posting.result", "duplicate"))
		b.logger.Debug("skipping already-forwarded posting",
			zap.String("key", posting.Key()))
		return
	}

	if err := b.submitter.Enqueue(ctx, posting); err != nil {
		span.RecordError(err)
		b.logger.Error("Failed to enqueue posting",
			zap.Error(err),
			zap.String("key", posting.Key()),
		)
		return
	}

	b.logger.Debug("Queued posting for ingest",
		zap.String("key", posting.Key()),
	)
}
