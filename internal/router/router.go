package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/syllabex/syllabex-api/internal/config"
	"github.com/syllabex/syllabex-api/internal/handler"
	"github.com/syllabex/syllabex-api/internal/middleware"
	"github.com/syllabex/syllabex-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	RubricHandler     *handler.RubricHandler
	GradebookHandler  *handler.GradebookHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	authed := api.Group("", jwtMiddleware)

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(authed)
	}

	if deps.SubmissionHandler != nil {
		submitLimiter := middleware.RateLimit("submit", cfg.SubmitRateLimit, cfg.SubmitRateWindow)
		deps.SubmissionHandler.Register(authed, submitLimiter)
	}

	if deps.RubricHandler != nil {
		deps.RubricHandler.Register(authed)
	}

	if deps.GradebookHandler != nil {
		deps.GradebookHandler.Register(authed)
	}
}
