// Package ratelimit builds the storage shared by the request limiter.
package ratelimit

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"
	"github.com/redis/go-redis/v9"

	"informe/internal/infra/logging"
)

// RedisConfig selects the Redis instance backing the limiter.
type RedisConfig struct {
	Addr string
	DB   int
}

const pingTimeout = time.Second

// NewStore returns Redis-backed storage when Addr is set and reachable, and
// in-memory storage otherwise. It never returns nil.
func NewStore(cfg RedisConfig) fiber.Storage {
	if cfg.Addr == "" {
		logging.Info("Using memory storage for rate limiting")
		return memoryStorage.New()
	}
	if err := ping(cfg); err != nil {
		logging.Warn("Redis unreachable, rate limiting falls back to memory", "addr", cfg.Addr, "error", err)
		return memoryStorage.New()
	}
	store, err := newRedisStore(cfg)
	if err != nil {
		logging.Error("Redis limiter store init failed, falling back to memory", "addr", cfg.Addr, "error", err)
		return memoryStorage.New()
	}
	logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	return store
}

func ping(cfg RedisConfig) error {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}

// newRedisStore turns the panic redisStorage.New raises on connection errors
// into an error.
func newRedisStore(cfg RedisConfig) (store fiber.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &initError{panic: r}
		}
	}()
	return redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.Addr},
		Database: cfg.DB,
	}), nil
}

type initError struct{ panic any }

func (e *initError) Error() string {
	if err, ok := e.panic.(error); ok {
		return "redis storage: " + err.Error()
	}
	return "redis storage init panicked"
}
