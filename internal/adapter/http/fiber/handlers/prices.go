package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/adapter/queue"
	"github.com/smartcharge/core/internal/domain"
	"github.com/smartcharge/core/internal/ports"
)

const priceListRefreshedSubject = "priceListRefreshed"

// PriceHandler exposes updatePrice. The handler only persists the price list
// and fans the refresh out as a priceListRefreshed message; the subscribers
// that actually replan affected vehicles live on the other side of the queue
// (internal/orchestrator wired from cmd/server), so a slow replan never holds
// the HTTP request open.
type PriceHandler struct {
	gw    ports.Gateway
	queue queue.MessageQueue
	log   *zap.Logger
}

func NewPriceHandler(gw ports.Gateway, q queue.MessageQueue, log *zap.Logger) *PriceHandler {
	return &PriceHandler{gw: gw, queue: q, log: log}
}

type priceListRequest struct {
	PriceCode string              `json:"priceCode"`
	Points    []domain.PricePoint `json:"points"`
}

// Update ingests a price feed update for one price code. Requires the
// internal-service shared secret (see middleware.InternalServiceAuth).
func (h *PriceHandler) Update(c *fiber.Ctx) error {
	var req priceListRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.KindInvalidInput, "http.price.Update", err)
	}
	if req.PriceCode == "" {
		return domain.NewError(domain.KindInvalidInput, "http.price.Update", errMissingPriceCode)
	}

	list := domain.PriceList{PriceCode: req.PriceCode, Points: req.Points}
	if err := h.gw.UpdatePriceList(c.Context(), list); err != nil {
		return err
	}

	if h.queue != nil {
		payload, err := json.Marshal(map[string]string{"priceCode": req.PriceCode})
		if err != nil {
			return err
		}
		if err := h.queue.Publish(priceListRefreshedSubject, payload); err != nil {
			h.log.Error("failed to publish priceListRefreshed", zap.String("priceCode", req.PriceCode), zap.Error(err))
		}
	}

	return c.SendStatus(fiber.StatusAccepted)
}

type priceErr string

func (e priceErr) Error() string { return string(e) }

const errMissingPriceCode = priceErr("priceCode is required")
