package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/higucxi/JobSearchApp/internal/aggregator"
	"github.com/higucxi/JobSearchApp/internal/cache"
	cacheredis "github.com/higucxi/JobSearchApp/internal/cache/redis"
	"github.com/higucxi/JobSearchApp/internal/config"
	"github.com/higucxi/JobSearchApp/internal/feed"
	"github.com/higucxi/JobSearchApp/internal/telemetry"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return zap.NewProduction()
}

func newNATSConnection(cfg *config.Config) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.NATSConnTimeout),
		nats.Name("jobsearch-bridge"),
		nats.RetryOnFailedConnect(true),
	}
	return nats.Connect(cfg.NATSURL, opts...)
}

func newSeenCache(cfg *config.Config) cache.Cache {
	opts := cache.DefaultOptions()
	opts.DefaultTTL = cfg.SeenTTL
	opts.RedisURL = cfg.RedisAddr
	opts.RedisPassword = cfg.RedisPassword
	opts.RedisDB = cfg.RedisDB
	return cacheredis.New(opts)
}

func newTracer() trace.Tracer {
	return telemetry.GetTracer("jobsearchapp/bridge")
}

// pingAggregator reports reachability at startup. The bridge starts
// either way; failed submissions are requeued until the aggregator
// comes back.
func pingAggregator(client aggregator.Client, cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.APITimeout)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		logger.Warn("aggregator not reachable at startup",
			zap.String("url", cfg.AggregatorBaseURL),
			zap.Error(err))
		return
	}
	logger.Info("aggregator healthy", zap.String("url", cfg.AggregatorBaseURL))
}

func registerTelemetry(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) {
	var shutdown func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := telemetry.InitTracer(ctx, "jobsearch-bridge", cfg.OTELCollectorURL)
			if err != nil {
				logger.Warn("tracing disabled", zap.Error(err))
				return nil
			}
			shutdown = fn
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown != nil {
				shutdown()
			}
			return nil
		},
	})
}

func main() {
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newNATSConnection,
			newSeenCache,
			newTracer,
			aggregator.NewClient,
			feed.NewSubmitter,
			feed.NewBridge,
		),
		fx.Invoke(
			registerTelemetry,
			pingAggregator,
			func(bridge *feed.Bridge, lc fx.Lifecycle) error {
				return bridge.RegisterSubscriptions(lc)
			},
		),
	)

	startCtx := context.Background()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx := context.Background()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
