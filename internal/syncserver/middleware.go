package syncserver

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// userContextKey stores the validated claims in the Fiber context.
const userContextKey = "claims"

// Error messages returned by the auth middleware.
const (
	msgMissingAuth   = "Missing Authorization header"
	msgMalformedAuth = "Malformed Authorization header"
	msgInvalidToken  = "Invalid token"
)

// AuthMiddleware rejects requests without a valid bearer token and
// stores the claims for the handlers.
func AuthMiddleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return unauthorized(c, msgMissingAuth)
		}

		fields := strings.Fields(header)
		if len(fields) != 2 || fields[0] != "Bearer" {
			return unauthorized(c, msgMalformedAuth)
		}

		claims, err := tokens.Validate(fields[1])
		if err != nil {
			return unauthorized(c, msgInvalidToken)
		}

		c.Locals(userContextKey, claims)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(errorBody(msg))
}

// claimsFrom returns the claims stored by AuthMiddleware.
func claimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(userContextKey).(*Claims)
	return claims
}

// requestLogger writes one structured line per request.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"elapsed", time.Since(start),
		)
		return err
	}
}
