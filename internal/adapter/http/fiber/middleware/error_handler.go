package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smartcharge/core/internal/domain"
)

// ErrorHandler maps a domain.Error's Kind onto an HTTP status code, falling
// back to *fiber.Error / 500 for anything that isn't one.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var de *domain.Error
		switch {
		case errors.As(err, &de):
			code = statusForKind(de.Kind)
		default:
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
		}

		if code == fiber.StatusInternalServerError {
			log.Error("unhandled request error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}
}

func statusForKind(k domain.ErrorKind) int {
	switch k {
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict:
		return fiber.StatusConflict
	case domain.KindInvalidInput:
		return fiber.StatusBadRequest
	case domain.KindAuthDenied:
		return fiber.StatusUnauthorized
	case domain.KindTransient:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
