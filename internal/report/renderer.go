package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"informe/internal/domain"
)

//go:embed templates/report.html.tmpl
var reportTemplate string

// labels maps the data lines of the report to their captions, in document order.
var labels = []struct {
	field domain.Field
	label string
}{
	{domain.FieldName, "Apellido y Nombre"},
	{domain.FieldIdentifier, "DNI"},
	{domain.FieldEmail, "Email"},
	{domain.FieldPhone, "Teléfono"},
	{domain.FieldAddress, "Dirección"},
}

// Document is a rendered report. It is immutable once built.
type Document struct {
	html string
}

// String returns the HTML source.
func (d Document) String() string { return d.html }

// Bytes returns a copy of the HTML source.
func (d Document) Bytes() []byte { return []byte(d.html) }

// Len returns the size of the HTML source in bytes.
func (d Document) Len() int { return len(d.html) }

type dataLine struct {
	Label string
	Value template.HTML
}

type reportView struct {
	FontFamily template.CSS
	Lines      []dataLine
	Message    template.HTML
}

// Renderer turns report requests into HTML documents with the fixed report layout.
// It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded report template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustRenderer is NewRenderer for package-level initialisation.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render builds the report document for req using family as the body typeface.
// Every field passes through Sanitize exactly once; the family is derived from
// configuration, never from the request.
func (r *Renderer) Render(req domain.ReportRequest, family domain.FontFamily) (Document, error) {
	view := reportView{
		FontFamily: template.CSS(family.CSS()),
		Lines:      make([]dataLine, 0, len(labels)),
		Message:    Sanitize(req.Message),
	}
	for _, l := range labels {
		view.Lines = append(view.Lines, dataLine{Label: l.label, Value: Sanitize(req.Value(l.field))})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view); err != nil {
		return Document{}, fmt.Errorf("execute report template: %w", err)
	}
	return Document{html: buf.String()}, nil
}
