package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"informe/internal/domain"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"a & b", "a &amp; b"},
		{"<b>hi</b>", "&lt;b&gt;hi&lt;/b&gt;"},
		{`say "hi"`, "say &quot;hi&quot;"},
		{"it's", "it&#39;s"},
		{"&amp;", "&amp;amp;"},
		{"+54 387 123 4567", "+54 387 123 4567"},
		{"Pérez, Ana Sofía\nDirección", "Pérez, Ana Sofía\nDirección"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Escape(tc.in), "Escape(%q)", tc.in)
	}
}

func TestEscape_NoRawSpecialCharactersRemain(t *testing.T) {
	inputs := []string{
		`&<>"'`,
		`<script>alert('x')</script>`,
		`" onmouseover="alert(1)`,
		strings.Repeat(`<&>"'`, 50),
		`a<b>c&d"e'f`,
	}
	for _, in := range inputs {
		out := Escape(in)
		// Entities themselves contain '&', so strip them before looking for raw characters.
		stripped := out
		for _, ent := range []string{"&amp;", "&lt;", "&gt;", "&quot;", "&#39;"} {
			stripped = strings.ReplaceAll(stripped, ent, "")
		}
		assert.False(t, strings.ContainsAny(stripped, `&<>"'`), "raw character left in %q", out)
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func TestRender_EscapesUserInput(t *testing.T) {
	r := newTestRenderer(t)
	req := domain.ReportRequest{Name: "Pérez & Ana", Message: "<b>hi</b>"}

	doc, err := r.Render(req, domain.DefaultFontSet.Family(domain.FontPrimary))
	require.NoError(t, err)

	html := doc.String()
	assert.Contains(t, html, "Pérez &amp; Ana")
	assert.Contains(t, html, "&lt;b&gt;hi&lt;/b&gt;")
	assert.NotContains(t, html, "<b>")
}

func TestRender_NeverInterpretsFieldsAsMarkup(t *testing.T) {
	r := newTestRenderer(t)
	evil := `</p><script>alert("x")</script><p class='x'>`
	req := domain.ReportRequest{
		Name: evil, Identifier: evil, Email: evil, Phone: evil, Address: evil, Message: evil,
	}

	doc, err := r.Render(req, domain.DefaultFontSet.Family(domain.FontPrimary))
	require.NoError(t, err)

	html := doc.String()
	assert.NotContains(t, html, "<script>")
	assert.Equal(t, 6, strings.Count(html, "&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;"))
	assert.Equal(t, 6, strings.Count(html, "&lt;p class=&#39;x&#39;&gt;"))
}

func TestRender_IsDeterministic(t *testing.T) {
	r := newTestRenderer(t)
	req := domain.ReportRequest{
		Name: "Ana", Identifier: "1", Email: "a@b.c", Phone: "+1", Address: "x", Message: "m",
	}
	family := domain.DefaultFontSet.Family(domain.FontFallback)

	a, err := r.Render(req, family)
	require.NoError(t, err)
	b, err := r.Render(req, family)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())
	assert.Equal(t, a.Len(), len(b.String()))
}

func TestRender_FixedFieldOrder(t *testing.T) {
	r := newTestRenderer(t)
	// Build the request from a map so input iteration order plays no part.
	fields := map[string]string{
		"message":    "VAL-MESSAGE",
		"address":    "VAL-ADDRESS",
		"phone":      "VAL-PHONE",
		"email":      "VAL-EMAIL",
		"identifier": "VAL-IDENTIFIER",
		"name":       "VAL-NAME",
	}
	for i := 0; i < 5; i++ {
		doc, err := r.Render(domain.RequestFromMap(fields, domain.FontPrimary), domain.DefaultFontSet.Family(domain.FontPrimary))
		require.NoError(t, err)
		html := doc.String()

		order := []string{"VAL-NAME", "VAL-IDENTIFIER", "VAL-EMAIL", "VAL-PHONE", "VAL-ADDRESS", "<h2>Mensaje</h2>", "VAL-MESSAGE"}
		last := -1
		for _, marker := range order {
			idx := strings.Index(html, marker)
			require.Greater(t, idx, last, "%s out of order", marker)
			last = idx
		}
	}
}

func TestRender_LayoutAndLabels(t *testing.T) {
	r := newTestRenderer(t)
	doc, err := r.Render(domain.ReportRequest{}, domain.DefaultFontSet.Family(domain.FontPrimary))
	require.NoError(t, err)
	html := doc.String()

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, `<header class="only-first"></header>`)
	assert.Contains(t, html, "<h1>Informe Final 2024</h1>")
	for _, label := range []string{"Apellido y Nombre:", "DNI:", "Email:", "Teléfono:", "Dirección:"} {
		assert.Contains(t, html, "<strong>"+label+"</strong>")
	}
	assert.Equal(t, 5, strings.Count(html, `<p class="datos">`))
	assert.Contains(t, html, "Firmas y sellos: Coni Josefina y Sandra (Coordinadoras) · Victoria (Presidenta)")
	assert.Contains(t, html, "font-size:20pt")
	assert.Contains(t, html, "p.datos strong { display:inline-block; width:120px; }")
}

func TestRender_FontFamilyDeclaration(t *testing.T) {
	r := newTestRenderer(t)

	primary, err := r.Render(domain.ReportRequest{}, domain.DefaultFontSet.Family(domain.FontPrimary))
	require.NoError(t, err)
	assert.Contains(t, primary.String(), `body{ font-family:"Calibri", "Carlito", sans-serif; }`)

	fallback, err := r.Render(domain.ReportRequest{}, domain.DefaultFontSet.Family(domain.FontFallback))
	require.NoError(t, err)
	assert.Contains(t, fallback.String(), `body{ font-family:"Carlito", sans-serif; }`)
	assert.NotContains(t, fallback.String(), "Calibri")
}
