package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/ingest"
)

// TelemetryHandler exposes the Ingestor's telemetry-sample entry point over
// HTTP for providers that talk REST instead of calling into the process.
type TelemetryHandler struct {
	ingestor *ingest.Ingestor
	log      *zap.Logger
}

func NewTelemetryHandler(ingestor *ingest.Ingestor, log *zap.Logger) *TelemetryHandler {
	return &TelemetryHandler{ingestor: ingestor, log: log}
}

// Update accepts one telemetry sample and runs it through the Ingestor.
func (h *TelemetryHandler) Update(c *fiber.Ctx) error {
	var input domain.UpdateVehicleDataInput
	if err := c.BodyParser(&input); err != nil {
		return domain.NewError(domain.KindInvalidInput, "http.telemetry.Update", err)
	}
	if input.ID == "" {
		return domain.NewError(domain.KindInvalidInput, "http.telemetry.Update", errMissingVehicleID)
	}

	if err := h.ingestor.Update(c.Context(), input, time.Now().UTC()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

type telemetryErr string

func (e telemetryErr) Error() string { return string(e) }

const errMissingVehicleID = telemetryErr("id is required")
