package render

import (
	"bytes"
	"io"
)

// Artifact is a rendered PDF document. Its bytes are never modified after
// creation; the caller owns it.
type Artifact struct {
	data  []byte
	pages int
}

// NewArtifact wraps data with its page count.
func NewArtifact(data []byte, pages int) *Artifact {
	return &Artifact{data: data, pages: pages}
}

// Bytes returns the raw PDF content.
func (a *Artifact) Bytes() []byte { return a.data }

// Len returns the size of the PDF in bytes.
func (a *Artifact) Len() int { return len(a.data) }

// Pages returns the number of pages found when the output was verified, or 0
// when verification was disabled.
func (a *Artifact) Pages() int { return a.pages }

// Reader returns a reader over the PDF content.
func (a *Artifact) Reader() *bytes.Reader { return bytes.NewReader(a.data) }

// WriteTo writes the PDF content to w.
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.data)
	return int64(n), err
}
