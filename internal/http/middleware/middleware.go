package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	"github.com/rs/xid"

	"informe/internal/config"
	"informe/internal/infra/logging"
)

// Health check paths served by the healthcheck middleware.
const (
	// LivenessEndpoint answers 200 while the process serves requests.
	LivenessEndpoint = "/ops/health"
	// ReadinessEndpoint answers 200 once the app accepts traffic.
	ReadinessEndpoint = "/ops/ready"
)

// Register attaches global middleware to the app. store backs the client
// rate limiter; nil means in-memory storage.
func Register(app *fiber.App, cfg config.Config, store fiber.Storage) {
	app.Use(cors.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(healthcheck.New(healthcheck.Config{
		LivenessEndpoint:  LivenessEndpoint,
		ReadinessEndpoint: ReadinessEndpoint,
	}))

	app.Use(RequestLog())

	if cfg.RateLimiter.Enabled {
		if store == nil {
			store = memoryStorage.New()
		}
		app.Use(ClientRateLimit(cfg.RateLimiter.Max, cfg.RateLimiter.Interval, store))
	}
}

// RequestLog logs one line per request once the handler chain has run.
func RequestLog() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		logging.Info("Request handled",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return err
	}
}

func clientKey(c *fiber.Ctx) string {
	sum := sha256.Sum256([]byte(c.IP() + c.Get(fiber.HeaderUserAgent)))
	return hex.EncodeToString(sum[:])
}

// ClientRateLimit allows limit requests per interval for each client, where a
// client is its IP address plus User-Agent.
func ClientRateLimit(limit int, interval time.Duration, store fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        interval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           store,
		KeyGenerator:      clientKey,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		LimitReached: func(c *fiber.Ctx) error {
			logging.Warn("Rate limit exceeded", "client", clientKey(c), "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    fiber.StatusTooManyRequests,
					"message": "Too many requests",
				},
			})
		},
	})
}
