// Package fiber wires the narrow HTTP ingress this core exposes: telemetry,
// price, and vehicle-configuration ingress, plus liveness/readiness probes
// and the Prometheus scrape endpoint.
package fiber

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/smartcharge/core/internal/adapter/http/fiber/handlers"
	"github.com/smartcharge/core/internal/adapter/http/fiber/middleware"
	"github.com/smartcharge/core/internal/adapter/queue"
	"github.com/smartcharge/core/internal/ingest"
	"github.com/smartcharge/core/internal/orchestrator"
	"github.com/smartcharge/core/internal/ports"
	"github.com/smartcharge/core/pkg/config"
)

const appName = "chargeplan-core"

// NewApp builds the Fiber app with every route this core exposes registered.
func NewApp(cfg *config.Config, db *gorm.DB, gw ports.Gateway, ingestor *ingest.Ingestor, orch *orchestrator.Orchestrator, q queue.MessageQueue, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		ServerHeader:          appName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CircuitBreaker.Enabled {
		app.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, log))
	}
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}

	health := handlers.NewHealthHandler(db)
	app.Get("/health/live", health.Live)
	app.Get("/health/ready", health.Ready)

	if cfg.Prometheus.Enabled {
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())(c.Context())
			return nil
		})
	}

	v1 := app.Group("/api/v1")

	telemetryHandler := handlers.NewTelemetryHandler(ingestor, log)
	v1.Post("/telemetry", telemetryHandler.Update)

	priceHandler := handlers.NewPriceHandler(gw, q, log)
	v1.Post("/prices", middleware.InternalServiceAuth(cfg.Security.InternalServiceSecret), priceHandler.Update)

	vehicleHandler := handlers.NewVehicleConfigHandler(gw, orch, log)
	v1.Patch("/vehicles/:id", vehicleHandler.Update)

	return app
}
