package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"informe/internal/domain"
	"informe/internal/infra/logging"
	"informe/internal/report"
)

// DefaultSettleTimeout bounds loading plus settling when Options leaves it unset.
const DefaultSettleTimeout = 10 * time.Second

// State is a step of a single PDF conversion.
type State int

const (
	// StateIdle is the state before a session exists.
	StateIdle State = iota
	// StateSessionAcquired means a session is open but holds no document yet.
	StateSessionAcquired
	// StateContentLoaded means the document loaded and settled.
	StateContentLoaded
	// StateExported means valid PDF bytes were produced.
	StateExported
	// StateReleased means the session is closed; every conversion ends here.
	StateReleased
)

// String returns the snake_case state name used in logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSessionAcquired:
		return "session_acquired"
	case StateContentLoaded:
		return "content_loaded"
	case StateExported:
		return "exported"
	case StateReleased:
		return "released"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Error is a rendering failure. State is the last state reached before the
// failure; the session has already been released when the error is returned.
type Error struct {
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("rendering failed after %s: %v", e.State, e.Err)
}

// Unwrap exposes domain.ErrRendering, the stage sentinel and the cause.
func (e *Error) Unwrap() []error { return []error{domain.ErrRendering, e.Err} }

func failure(state State, stage, cause error) *Error {
	return &Error{State: state, Err: fmt.Errorf("%w: %w", stage, cause)}
}

// Source is what a conversion loads: inline HTML or a URL serving the document.
type Source struct {
	HTML string
	URL  string
}

// FromDocument loads doc by content injection.
func FromDocument(doc report.Document) Source { return Source{HTML: doc.String()} }

// FromURL loads the document by navigating to u.
func FromURL(u string) Source { return Source{URL: u} }

func (s Source) kind() string {
	if s.URL != "" {
		return "url"
	}
	return "content"
}

// Options tune a PDFRenderer.
type Options struct {
	// SettleTimeout bounds loading the source and waiting for it to settle.
	SettleTimeout time.Duration
	// Page is the print geometry; the zero value means domain.ReportPage.
	Page domain.PageSetup
	// Verify parses the exported bytes before handing them out.
	Verify bool
	// Observer, if set, is called on every state transition.
	Observer func(State)
}

// PDFRenderer converts documents to PDF, one engine session per call.
type PDFRenderer struct {
	engine Engine
	opts   Options
}

// NewPDFRenderer returns a renderer printing through engine.
func NewPDFRenderer(engine Engine, opts Options) *PDFRenderer {
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = DefaultSettleTimeout
	}
	if opts.Page == (domain.PageSetup{}) {
		opts.Page = domain.ReportPage
	}
	return &PDFRenderer{engine: engine, opts: opts}
}

func (r *PDFRenderer) enter(s State) {
	if r.opts.Observer != nil {
		r.opts.Observer(s)
	}
}

// ToPDF loads src into a fresh session, waits for it to settle and exports it.
// The session is released on every path. On error no bytes are returned.
func (r *PDFRenderer) ToPDF(ctx context.Context, src Source) (*Artifact, error) {
	r.enter(StateIdle)
	if src.HTML == "" && src.URL == "" {
		r.enter(StateReleased)
		return nil, failure(StateIdle, domain.ErrContentNotSettled, errors.New("empty source"))
	}

	start := time.Now()
	sess, err := r.engine.NewSession(ctx)
	if err != nil {
		r.enter(StateReleased)
		return nil, failure(StateIdle, domain.ErrSessionUnavailable, err)
	}
	r.enter(StateSessionAcquired)
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logging.Warn("Rendering session close failed", "error", cerr)
		}
		r.enter(StateReleased)
	}()

	if err := r.load(ctx, sess, src); err != nil {
		return nil, failure(StateSessionAcquired, domain.ErrContentNotSettled, err)
	}
	r.enter(StateContentLoaded)

	data, err := sess.PrintToPDF(ctx, r.opts.Page)
	if err != nil {
		return nil, failure(StateContentLoaded, domain.ErrExportFailed, err)
	}
	if len(data) == 0 {
		return nil, failure(StateContentLoaded, domain.ErrExportFailed, errors.New("engine returned no bytes"))
	}

	pages := 0
	if r.opts.Verify {
		if pages, err = verifyPDF(data); err != nil {
			return nil, failure(StateContentLoaded, domain.ErrInvalidPDF, err)
		}
	} else if !HasPDFSignature(data) {
		return nil, failure(StateContentLoaded, domain.ErrInvalidPDF, errors.New("missing %PDF- header"))
	}
	r.enter(StateExported)

	logging.Debug("PDF exported", "source", src.kind(), "bytes", len(data), "pages", pages, "duration_ms", time.Since(start).Milliseconds())
	return NewArtifact(data, pages), nil
}

// load brings src into sess within the settle bound.
func (r *PDFRenderer) load(ctx context.Context, sess Session, src Source) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.SettleTimeout)
	defer cancel()

	var err error
	if src.URL != "" {
		err = sess.Navigate(ctx, src.URL)
	} else {
		err = sess.SetContent(ctx, src.HTML)
	}
	if err != nil {
		return err
	}
	return sess.WaitSettled(ctx)
}
