package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fitonboard/backend/pkg/logger"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// CounterReader reads durable counters by name.
type CounterReader interface {
	GetMetric(ctx context.Context, name string) (int64, error)
}

type HealthHandler struct {
	checks   map[string]Check
	counters CounterReader
	names    []string
	now      func() time.Time
}

// NewHealthHandler takes the readiness checks by dependency name. Optional
// dependencies that are disabled are simply left out.
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, now: time.Now}
}

// WithCounters exposes the named durable counters on Stats.
func (h *HealthHandler) WithCounters(r CounterReader, names ...string) *HealthHandler {
	h.counters = r
	h.names = names
	return h
}

// Stats reports the durable counters. Counters that cannot be read are left
// out and the response is marked partial.
func (h *HealthHandler) Stats(c *fiber.Ctx) error {
	counters := make(map[string]int64, len(h.names))
	partial := false
	if h.counters != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()
		for _, name := range h.names {
			n, err := h.counters.GetMetric(ctx, name)
			if err != nil {
				logger.Warn("Failed to read counter", zap.String("counter", name), zap.Error(err))
				partial = true
				continue
			}
			counters[name] = n
		}
	}
	return c.JSON(fiber.Map{
		"counters": counters,
		"partial":  partial,
		"time":     h.now().Unix(),
	})
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   h.now().Unix(),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			results[name] = "unavailable"
			status = fiber.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != fiber.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":       state,
		"dependencies": results,
	})
}
