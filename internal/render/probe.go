package render

import (
	"context"
	"time"

	"informe/internal/domain"
	"informe/internal/infra/logging"
)

const probeDocument = `<html><body>check</body></html>`

// DefaultProbeTimeout bounds a probe when NewFontProber is given no timeout.
const DefaultProbeTimeout = 10 * time.Second

// FontSpec is the CSS font shorthand used to probe name: 12pt and the quoted family.
func FontSpec(name string) string {
	return "12pt " + domain.QuoteFontName(name)
}

// FontProber asks the rendering engine whether a font is available for text
// shaping. It never caches: every call opens and releases its own session.
type FontProber struct {
	engine  Engine
	timeout time.Duration
}

// NewFontProber returns a prober using engine.
func NewFontProber(engine Engine, timeout time.Duration) *FontProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &FontProber{engine: engine, timeout: timeout}
}

// Probe reports whether fontName is available. Any failure to perform the
// check counts as not available.
func (p *FontProber) Probe(ctx context.Context, fontName string) bool {
	if fontName == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sess, err := p.engine.NewSession(ctx)
	if err != nil {
		logging.Warn("Font probe unavailable", "font", fontName, "error", err)
		return false
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logging.Warn("Probe session close failed", "error", cerr)
		}
	}()

	if err := sess.SetContent(ctx, probeDocument); err != nil {
		logging.Warn("Font probe unavailable", "font", fontName, "error", err)
		return false
	}
	if err := sess.WaitSettled(ctx); err != nil {
		logging.Warn("Font probe unavailable", "font", fontName, "error", err)
		return false
	}
	ok, err := sess.FontAvailable(ctx, FontSpec(fontName))
	if err != nil {
		logging.Warn("Font probe unavailable", "font", fontName, "error", err)
		return false
	}
	logging.Debug("Font probed", "font", fontName, "available", ok)
	return ok
}
