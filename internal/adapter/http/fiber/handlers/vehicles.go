package handlers

import (
	"time"

	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"

	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/orchestrator"
	"github.com/smartcharge/core/internal/ports"
)

// VehicleConfigHandler exposes updateVehicle: the user-mutable subset of a
// vehicle's configuration. A successful update triggers a replan, since
// minimum/maximum/anxiety/trip-schedule changes can invalidate the current
// charge_plan immediately.
type VehicleConfigHandler struct {
	gw   ports.Gateway
	orch *orchestrator.Orchestrator
	log  *zap.Logger
}

func NewVehicleConfigHandler(gw ports.Gateway, orch *orchestrator.Orchestrator, log *zap.Logger) *VehicleConfigHandler {
	return &VehicleConfigHandler{gw: gw, orch: orch, log: log}
}

type updateVehicleRequest struct {
	Name          *string               `json:"name"`
	MinimumCharge *int                  `json:"minimumLevel"`
	MaximumCharge *int                  `json:"maximumLevel"`
	AnxietyLevel  *int                  `json:"anxietyLevel"`
	ScheduledTrip *domain.ScheduledTrip `json:"tripSchedule"`
	PausedUntil   *string               `json:"pausedUntil"`
	Status        *string               `json:"status"`
	ProviderData  []byte                `json:"providerData"`
}

// Update applies the user-mutable subset of a vehicle's configuration.
func (h *VehicleConfigHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return domain.NewError(domain.KindInvalidInput, "http.vehicle.Update", errMissingVehicleIDParam)
	}

	vehicle, err := h.gw.GetVehicle(c.Context(), id)
	if err != nil {
		return err
	}
	if vehicle == nil {
		return domain.NewError(domain.KindNotFound, "http.vehicle.Update", errVehicleNotFoundParam)
	}

	var req updateVehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.KindInvalidInput, "http.vehicle.Update", err)
	}

	if req.Name != nil {
		vehicle.Name = *req.Name
	}
	if req.MinimumCharge != nil {
		vehicle.MinimumCharge = *req.MinimumCharge
	}
	if req.MaximumCharge != nil {
		vehicle.MaximumCharge = *req.MaximumCharge
	}
	if req.AnxietyLevel != nil {
		vehicle.AnxietyLevel = *req.AnxietyLevel
	}
	if req.ScheduledTrip != nil {
		vehicle.ScheduledTrip = req.ScheduledTrip
	}
	if req.Status != nil {
		vehicle.Status = *req.Status
	}
	if req.ProviderData != nil {
		vehicle.ProviderData = req.ProviderData
	}
	if req.PausedUntil != nil {
		if *req.PausedUntil == "" {
			vehicle.PausedUntil = nil
		} else {
			t, err := time.Parse(time.RFC3339, *req.PausedUntil)
			if err != nil {
				return domain.NewError(domain.KindInvalidInput, "http.vehicle.Update", err)
			}
			vehicle.PausedUntil = &t
		}
	}

	if err := vehicle.ValidConfig(); err != nil {
		return err
	}

	if err := h.gw.SaveVehicle(c.Context(), vehicle); err != nil {
		return err
	}

	if err := h.orch.Refresh(c.Context(), vehicle.ID); err != nil {
		h.log.Error("replan after configuration update failed", zap.String("vehicleId", vehicle.ID), zap.Error(err))
	}

	return c.JSON(vehicle)
}

type vehicleErr string

func (e vehicleErr) Error() string { return string(e) }

const (
	errMissingVehicleIDParam = vehicleErr("id is required")
	errVehicleNotFoundParam  = vehicleErr("vehicle not found")
)
