package report

import (
	"html/template"
	"strings"
)

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Escape replaces &, <, >, " and ' with their entities in a single pass.
// Every other character is returned unchanged.
func Escape(s string) string {
	return htmlReplacer.Replace(s)
}

// Sanitize escapes s and marks the result as safe element content. It is the
// only way a submitted value reaches the report template.
func Sanitize(s string) template.HTML {
	return template.HTML(Escape(s))
}
