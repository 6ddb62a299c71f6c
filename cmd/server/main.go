package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/adapter/cache"
	fiberadapter "github.com/smartcharge/core/internal/adapter/http/fiber"
	"github.com/smartcharge/core/internal/adapter/queue"
	"github.com/smartcharge/core/internal/adapter/storage/cached"
	"github.com/smartcharge/core/internal/adapter/storage/postgres"
	"github.com/smartcharge/core/internal/curve"
	"github.com/smartcharge/core/internal/ingest"
	"github.com/smartcharge/core/internal/observability/telemetry"
	"github.com/smartcharge/core/internal/orchestrator"
	"github.com/smartcharge/core/internal/planner"
	"github.com/smartcharge/core/internal/stats"
	"github.com/smartcharge/core/pkg/config"
)

const (
	serviceName    = "chargeplan-core"
	serviceVersion = "v1.0.0"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("starting chargeplan-core",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry.ServiceName)
		if err != nil {
			logger.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer postgres.Close(db)

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	messageQueue, err := newMessageQueue(cfg, logger)
	if err != nil {
		logger.Warn("message queue not available, price-feed fanout disabled", zap.Error(err))
		messageQueue = nil
	} else {
		defer messageQueue.Close()
	}

	appCache, err := cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis not available, falling back to in-memory cache", zap.Error(err))
		appCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer appCache.Close()

	gw := cached.NewGateway(postgres.NewGateway(db, logger), appCache, cfg.Cache.KnownLocationTTL, cfg.Cache.CurrentStatsTTL, logger)

	learner := curve.NewLearner(gw, logger)
	statsEngine := stats.NewEngine(gw, logger)
	plan := planner.New(gw, statsEngine, logger)
	if messageQueue != nil {
		plan.SetActionQueue(messageQueue)
	}
	orch := orchestrator.New(gw, plan, logger)
	ingestor := ingest.NewIngestor(gw, learner, statsEngine, orch, logger)

	if messageQueue != nil {
		subscribeToPriceFeed(messageQueue, orch, logger)
	}

	app := fiberadapter.NewApp(cfg, db, gw, ingestor, orch, messageQueue, logger)

	go func() {
		logger.Info("starting HTTP server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}

// newMessageQueue picks the Action-channel backend per cfg.Queue.Backend.
// RabbitMQ is the explicit opt-in; everything else (including an empty
// value) uses NATS, matching the "nats" default setDefaults establishes.
func newMessageQueue(cfg *config.Config, logger *zap.Logger) (queue.MessageQueue, error) {
	if cfg.Queue.Backend == "rabbitmq" {
		return queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, logger)
	}
	return queue.NewNATSQueue(cfg.NATS.URL, logger)
}

// subscribeToPriceFeed wires the priceListRefreshed subject to the
// Orchestrator so a price update replans every affected vehicle without
// blocking the HTTP handler that ingested it.
func subscribeToPriceFeed(mq queue.MessageQueue, orch *orchestrator.Orchestrator, logger *zap.Logger) {
	err := mq.Subscribe("priceListRefreshed", func(msg []byte) error {
		var event struct {
			PriceCode string `json:"priceCode"`
		}
		if err := json.Unmarshal(msg, &event); err != nil {
			logger.Error("failed to unmarshal priceListRefreshed event", zap.Error(err))
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := orch.OnPriceFeedUpdated(ctx, event.PriceCode); err != nil {
			logger.Error("price feed replan failed", zap.String("priceCode", event.PriceCode), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to subscribe to priceListRefreshed", zap.Error(err))
	}
}
