package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/smartcharge/core/internal/domain"
)

// InternalServiceAuth gates the narrow set of mutation paths that require
// internal-service identity (the price feed) behind a shared secret carried
// in the Authorization header as "Bearer <secret>". A mismatch or missing
// header surfaces as an AuthDenied domain error so ErrorHandler maps it to
// 401 the same way it would any other domain error.
func InternalServiceAuth(secret string) fiber.Handler {
	const prefix = "Bearer "
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			return domain.NewError(domain.KindAuthDenied, "http.internalServiceAuth", errMissingToken)
		}
		token := header[len(prefix):]
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return domain.NewError(domain.KindAuthDenied, "http.internalServiceAuth", errBadToken)
		}
		return c.Next()
	}
}

var (
	errMissingToken = fiberAuthErr("missing bearer token")
	errBadToken     = fiberAuthErr("invalid internal service secret")
)

type fiberAuthErr string

func (e fiberAuthErr) Error() string { return string(e) }
