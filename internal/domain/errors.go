package domain

import "errors"

var (
	// ErrRendering marks every failure of the HTML to PDF pipeline. Callers
	// never receive PDF bytes together with an error matching it.
	ErrRendering = errors.New("rendering failed")
	// ErrSessionUnavailable signals that no rendering session could be created.
	ErrSessionUnavailable = errors.New("rendering session unavailable")
	// ErrContentNotSettled signals that the document did not finish loading in time.
	ErrContentNotSettled = errors.New("content did not settle")
	// ErrUnexpectedStatus signals that a navigated document answered with a non-2xx HTTP status.
	ErrUnexpectedStatus = errors.New("unexpected document status")
	// ErrExportFailed signals that the engine failed to print the document.
	ErrExportFailed = errors.New("pdf export failed")
	// ErrInvalidPDF signals that the engine returned bytes that are not a readable PDF.
	ErrInvalidPDF = errors.New("invalid pdf output")
)
