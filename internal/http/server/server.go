package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"informe/internal/config"
	"informe/internal/http/handlers"
	"informe/internal/http/middleware"
	"informe/internal/infra/logging"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Config    config.Config
	Templates handlers.TemplateRenderer
	Converter handlers.Converter
	Prober    handlers.Prober
	// LimiterStore backs the client rate limiter; nil means in-memory storage.
	LimiterStore fiber.Storage
}

// headerAllowance is the read buffer reserved for request headers on top of
// the URL limit.
const headerAllowance = 8 << 10

// readBufferSize fits a request line of maxURLBytes plus ordinary headers.
// Zero keeps fiber's default.
func readBufferSize(maxURLBytes int) int {
	if maxURLBytes <= 0 {
		return 0
	}
	return maxURLBytes + headerAllowance
}

// New creates and configures the Fiber app.
func New(deps Deps) *fiber.App {
	cfg := deps.Config
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		BodyLimit:             cfg.Limits.MaxBodyBytes,
		ReadBufferSize:        readBufferSize(cfg.Limits.MaxURLBytes),
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	middleware.Register(app, cfg, deps.LimiterStore)
	registerRoutes(app, deps)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
		},
	})
}

func registerRoutes(app *fiber.App, deps Deps) {
	svc := handlers.NewReportService(deps.Config, deps.Templates, deps.Converter, deps.Prober)

	app.Get("/", svc.HandleIndex)
	app.Get("/_template", svc.HandleTemplate)
	app.Get("/health/:target", svc.HandleFontHealth)
	app.Post("/pdf", svc.HandlePDF)

	app.Get("/ops/monitor", monitor.New(monitor.Config{Title: "informe"}))
}
