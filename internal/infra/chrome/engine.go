package chrome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"informe/internal/domain"
	"informe/internal/render"
)

// Options configure how browsers are launched.
type Options struct {
	// ExecPath is the Chrome binary; empty lets chromedp search the usual locations.
	ExecPath string
	// NoSandbox disables the Chrome sandbox, required when running as root in containers.
	NoSandbox bool
	// UserDataDir is the base directory for throw-away profiles; empty means os.TempDir().
	UserDataDir string
	// QuietPeriod is how long the document must stay settled before printing.
	QuietPeriod time.Duration
}

// Engine launches one headless Chrome per session.
type Engine struct {
	opts Options
}

var _ render.Engine = (*Engine)(nil)

// NewEngine returns an engine launching browsers with opts.
func NewEngine(opts Options) *Engine {
	if opts.QuietPeriod < 0 {
		opts.QuietPeriod = 0
	}
	return &Engine{opts: opts}
}

func createProfileDir(base string) (string, error) {
	if base == "" {
		base = os.TempDir()
	}
	if err := os.MkdirAll(base, 0o700); err != nil {
		return "", fmt.Errorf("cannot create profile base dir: %w", err)
	}
	dir, err := os.MkdirTemp(base, "chromedata-*")
	if err != nil {
		return "", fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	return dir, nil
}

func (e *Engine) allocatorOptions(profileDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		// Force software rendering and avoid Vulkan/ANGLE issues in minimal container environments.
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-gpu-compositing", true),
		chromedp.Flag("disable-features", "Vulkan,UseSkiaRenderer"),
		chromedp.Flag("use-gl", "swiftshader"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if e.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(e.opts.ExecPath))
	}
	if e.opts.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	return opts
}

// NewSession starts a browser with a private profile and one tab. The browser
// is started eagerly so that launch failures surface here; on failure every
// resource is released before returning.
func (e *Engine) NewSession(ctx context.Context) (render.Session, error) {
	profileDir, err := createProfileDir(e.opts.UserDataDir)
	if err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), e.allocatorOptions(profileDir)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		profileDir:  profileDir,
		quiet:       e.opts.QuietPeriod,
	}
	chromedp.ListenTarget(tabCtx, s.onEvent)

	// The first Run allocates the browser and ties its lifetime to the context
	// it is given, so it must run on tabCtx itself and be bounded from outside.
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)) }()
	select {
	case err := <-errc:
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("start chrome: %w", err)
		}
	case <-ctx.Done():
		_ = s.Close()
		<-errc
		return nil, fmt.Errorf("start chrome: %w", ctx.Err())
	}
	return s, nil
}

// Session is a single headless Chrome with one tab.
type Session struct {
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	profileDir  string
	quiet       time.Duration

	navigated   bool
	networkIdle atomic.Bool
	closeOnce   sync.Once
}

var _ render.Session = (*Session)(nil)

func (s *Session) onEvent(ev any) {
	if e, ok := ev.(*page.EventLifecycleEvent); ok {
		switch e.Name {
		case "init":
			s.networkIdle.Store(false)
		case "networkIdle":
			s.networkIdle.Store(true)
		}
	}
}

// run executes actions on the tab, bounded by ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	return s.bounded(ctx, func(runCtx context.Context) error {
		return chromedp.Run(runCtx, actions...)
	})
}

// bounded calls fn with a tab context that is canceled together with ctx.
func (s *Session) bounded(ctx context.Context, fn func(runCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := fn(runCtx)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

// SetContent replaces the blank tab's document with html.
func (s *Session) SetContent(ctx context.Context, html string) error {
	return s.run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
	)
}

// Navigate loads url and waits for its load event. A main document answering
// with a non-2xx status is an error, so error pages are never printed.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.navigated = true
	s.networkIdle.Store(false)
	var resp *network.Response
	err := s.bounded(ctx, func(runCtx context.Context) error {
		var err error
		resp, err = chromedp.RunResponse(runCtx, chromedp.Navigate(url))
		return err
	})
	if err != nil {
		return err
	}
	return checkResponse(url, resp)
}

// checkResponse rejects main document responses outside 2xx. A nil response
// (no network request, e.g. data: URLs) is accepted.
func checkResponse(url string, resp *network.Response) error {
	if resp == nil || (resp.Status >= 200 && resp.Status < 300) {
		return nil
	}
	return fmt.Errorf("%w: %s answered %d %s", domain.ErrUnexpectedStatus, url, resp.Status, resp.StatusText)
}

// WaitSettled waits for the document, its fonts and, after a navigation, the
// network to go idle, then for the quiet period.
func (s *Session) WaitSettled(ctx context.Context) error {
	if s.navigated {
		if err := waitFor(ctx, s.networkIdle.Load); err != nil {
			return fmt.Errorf("waiting for network idle: %w", err)
		}
	}
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return waitForRenderReady(ctx, s.quiet)
	}))
}

// PrintToPDF prints the current document with setup.
func (s *Session) PrintToPDF(ctx context.Context, setup domain.PageSetup) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPrintBackground(setup.PrintBackground).
			WithPreferCSSPageSize(false).
			WithPaperWidth(setup.Width).
			WithPaperHeight(setup.Height).
			WithMarginTop(setup.Margins.Top).
			WithMarginRight(setup.Margins.Right).
			WithMarginBottom(setup.Margins.Bottom).
			WithMarginLeft(setup.Margins.Left).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// FontAvailable evaluates document.fonts.check for spec inside the page.
func (s *Session) FontAvailable(ctx context.Context, spec string) (bool, error) {
	quoted, err := json.Marshal(spec)
	if err != nil {
		return false, err
	}
	expr := fmt.Sprintf(`(() => {
		if (!document.fonts || typeof document.fonts.check !== "function") {
			throw new Error("font capability unavailable");
		}
		return document.fonts.check(%s) === true;
	})()`, quoted)

	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return false, err
	}
	return ok, nil
}

// Close shuts the tab and the browser down and removes the profile directory.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.tabCancel()
		s.allocCancel()
		err = os.RemoveAll(s.profileDir)
	})
	return err
}

// waitFor polls cond until it holds or ctx is done.
func waitFor(ctx context.Context, cond func() bool) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

const readyExpr = `document.readyState === "complete" && (!document.fonts || document.fonts.status === "loaded")`

// waitForRenderReady polls the page until the document and its fonts have
// loaded, then waits quiet before returning. ctx must be a chromedp context.
func waitForRenderReady(ctx context.Context, quiet time.Duration) error {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var ready bool
		if err := chromedp.Evaluate(readyExpr, &ready).Do(ctx); err != nil {
			return err
		}
		if ready {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	if quiet <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(quiet):
		return nil
	}
}

// IsSessionInterrupted reports whether err means the browser session went
// away (canceled, timed out or its target closed) rather than a content problem.
func IsSessionInterrupted(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"target closed", "context canceled", "websocket", "invalid context", "connection reset"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
