package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var pdfSignature = []byte("%PDF-")

// HasPDFSignature reports whether data starts with the PDF file header.
func HasPDFSignature(data []byte) bool {
	return bytes.HasPrefix(data, pdfSignature)
}

// verifyPDF checks that data is a readable PDF with at least one page and
// returns the page count.
func verifyPDF(data []byte) (pages int, err error) {
	if !HasPDFSignature(data) {
		return 0, errors.New("missing %PDF- header")
	}
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("unreadable pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("unreadable pdf: %w", err)
	}
	n := r.NumPage()
	if n < 1 {
		return 0, errors.New("pdf has no pages")
	}
	return n, nil
}
