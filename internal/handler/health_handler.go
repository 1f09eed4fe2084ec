package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Dependency is a named backend checked by the health endpoint.
type Dependency struct {
	Name   string
	Pinger Pinger
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps []Dependency
}

// NewHealthHandler creates a new HealthHandler over the given backends.
func NewHealthHandler(deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Check pings every backend in order.
// Returns 200 OK with {"status": "healthy"} when all are reachable.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "<name> connection failed"}
// naming the first backend that failed.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	for _, dep := range h.deps {
		if err := dep.Pinger.Ping(c.UserContext()); err != nil {
			log.Error().Err(err).Str("dependency", dep.Name).Msg("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  dep.Name + " connection failed",
			})
		}
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}
