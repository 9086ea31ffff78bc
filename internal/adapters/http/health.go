package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/multimap/internal/assets"
)

const readyTimeout = 3 * time.Second

var errDisconnected = errors.New("disconnected")

// dependencyCheck probes one backing service. A nil probe means the
// service is not configured, which does not affect readiness.
type dependencyCheck struct {
	name  string
	probe func(ctx context.Context) error
}

func dependencyChecks(deps *Dependencies) []dependencyCheck {
	checks := []dependencyCheck{{name: "database"}, {name: "nats"}, {name: "cache"}}
	if deps.DB != nil {
		checks[0].probe = func(ctx context.Context) error { return deps.DB.Pool.Ping(ctx) }
	}
	if deps.NATS != nil {
		checks[1].probe = func(context.Context) error {
			if !deps.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}
	if deps.Cache != nil {
		checks[2].probe = deps.Cache.Ping
	}
	return checks
}

// HealthHandler reports liveness and the bootstrap asset version served to pages.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":           "healthy",
			"uptime":           time.Since(startedAt).Round(time.Second).String(),
			"bootstrap_asset":  assets.BootstrapETag(),
			"previews_enabled": deps.Previews != nil,
		})
	}
}

// ReadyHandler probes every configured backing service. Unconfigured
// services are listed but never fail readiness, since widgets still render
// without images, events or previews.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := dependencyChecks(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for _, chk := range checks {
			if chk.probe == nil {
				results[chk.name] = "not configured"
				continue
			}
			if err := chk.probe(ctx); err != nil {
				results[chk.name] = "error: " + err.Error()
				ready = false
				continue
			}
			results[chk.name] = "ok"
		}

		status, code := "ready", fiber.StatusOK
		if !ready {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": results,
		})
	}
}
