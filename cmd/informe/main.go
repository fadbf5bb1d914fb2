package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"informe/internal/config"
	"informe/internal/http/server"
	"informe/internal/infra/chrome"
	"informe/internal/infra/fontconfig"
	"informe/internal/infra/logging"
	"informe/internal/infra/ratelimit"
	"informe/internal/render"
	"informe/internal/report"
)

func main() {
	cfg := config.Load()
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	go logInstalledFonts(cfg)

	engine := chrome.NewEngine(chrome.Options{
		ExecPath:    cfg.PDF.ChromePath,
		NoSandbox:   cfg.PDF.ChromeNoSandbox,
		UserDataDir: cfg.PDF.UserDataDir,
		QuietPeriod: cfg.PDF.QuietPeriod,
	})

	var store fiber.Storage
	if cfg.RateLimiter.Enabled {
		store = ratelimit.NewStore(ratelimit.RedisConfig{Addr: cfg.Cache.RedisHost, DB: cfg.Cache.RateLimitDB})
	}

	app := server.New(server.Deps{
		Config:    cfg,
		Templates: report.MustRenderer(),
		Converter: render.NewPDFRenderer(engine, render.Options{
			SettleTimeout: cfg.PDF.SettleTimeout,
			Verify:        cfg.PDF.VerifyOutput,
		}),
		Prober:       render.NewFontProber(engine, cfg.PDF.ProbeTimeout),
		LimiterStore: store,
	})

	logging.Info("Starting server", "addr", cfg.Server.Host+cfg.Server.Port, "base_url", cfg.Server.BaseURL, "render_mode", cfg.PDF.RenderMode)

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg.Server.Host+cfg.Server.Port, idleConnsClosed)
	<-idleConnsClosed
}

// logInstalledFonts reports whether fontconfig knows the configured fonts.
// The browser probe remains authoritative.
func logInstalledFonts(cfg config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, name := range []string{cfg.Fonts.Primary, cfg.Fonts.Fallback} {
		ok, err := fontconfig.Installed(ctx, fontconfig.ExecLister, name)
		switch {
		case err != nil:
			logging.Debug("Font inventory unavailable", "font", name, "error", err)
			return
		case ok:
			logging.Info("Font installed", "font", name)
		default:
			logging.Warn("Font not installed", "font", name)
		}
	}
}

// shutdownTimeout bounds in-flight conversions once a signal arrives.
const shutdownTimeout = 5 * time.Second

// startServer serves app on addr until SIGINT or SIGTERM, then drains it and
// closes idleConnsClosed.
func startServer(app *fiber.App, addr string, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(addr); err != nil {
			logging.Error("Server error", "addr", addr, "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint
	signal.Stop(sigint)

	logging.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
