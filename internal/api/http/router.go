package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/resource-gateway/internal/api/http/handlers"
	"github.com/spec-kit/resource-gateway/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Token      *handlers.TokenHandler
	Resources  *handlers.ResourcesHandler
	AccessGate *auth.Middleware
}

// RegisterRoutes wires HTTP routes. The token endpoint and health probes are
// the only routes outside the access gate.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/oauth/token", cfg.Token.Token)

	protected := app.Group("/resources", cfg.AccessGate.Handle)
	protected.Get("/", cfg.Resources.List)
	protected.Get("/content", cfg.Resources.Content)
}
