// Package render drives a rendering engine to print report documents to PDF
// and to probe font availability. Each operation owns one engine session that
// is released before the operation returns.
package render

import (
	"context"

	"informe/internal/domain"
)

// Engine creates isolated rendering sessions.
type Engine interface {
	// NewSession starts a dedicated session. On error nothing is left to release.
	NewSession(ctx context.Context) (Session, error)
}

// Session is one isolated rendering context, such as a browser with a single tab.
// Sessions are not safe for concurrent use.
type Session interface {
	// SetContent replaces the current document with html.
	SetContent(ctx context.Context, html string) error
	// Navigate loads the document served at url.
	Navigate(ctx context.Context, url string) error
	// WaitSettled returns once the document has loaded and network and layout
	// activity has stopped.
	WaitSettled(ctx context.Context) error
	// PrintToPDF exports the laid-out document as a paginated PDF.
	PrintToPDF(ctx context.Context, setup domain.PageSetup) ([]byte, error)
	// FontAvailable reports whether the CSS font shorthand spec (for example
	// `12pt "Calibri"`) resolves without substitution.
	FontAvailable(ctx context.Context, spec string) (bool, error)
	// Close releases the session and every resource behind it. It is idempotent.
	Close() error
}
