package domain

import (
	"fmt"
	"strings"
)

// FontFamily is an ordered list of font names tried by the rendering engine,
// terminated by a generic family keyword.
type FontFamily struct {
	names   []string
	generic string
}

// NewFontFamily returns a family trying names in order, then generic.
func NewFontFamily(generic string, names ...string) FontFamily {
	cp := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cp = append(cp, n)
		}
	}
	if generic == "" {
		generic = "sans-serif"
	}
	return FontFamily{names: cp, generic: generic}
}

// Names returns the candidate font names without the generic keyword.
func (f FontFamily) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Generic returns the terminating generic family keyword.
func (f FontFamily) Generic() string { return f.generic }

// CSS renders the family as a CSS font-family value. Names are quoted, the
// generic keyword is not.
func (f FontFamily) CSS() string {
	var b strings.Builder
	for _, n := range f.names {
		b.WriteString(QuoteFontName(n))
		b.WriteString(", ")
	}
	b.WriteString(f.generic)
	return b.String()
}

// QuoteFontName returns name as a double-quoted CSS string.
func QuoteFontName(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(name) + `"`
}

// FontSet holds the configured primary font, its fallback and the generic keyword.
type FontSet struct {
	Primary  string
	Fallback string
	Generic  string
}

// DefaultFontSet is the report's Calibri / Carlito / sans-serif policy.
var DefaultFontSet = FontSet{Primary: "Calibri", Fallback: "Carlito", Generic: "sans-serif"}

// Family derives the declaration for c. The fallback choice never lists the
// primary font.
func (s FontSet) Family(c FontChoice) FontFamily {
	if c == FontFallback {
		return NewFontFamily(s.Generic, s.Fallback)
	}
	return NewFontFamily(s.Generic, s.Primary, s.Fallback)
}

// Name returns the font c asks for first.
func (s FontSet) Name(c FontChoice) string {
	if c == FontFallback {
		return s.Fallback
	}
	return s.Primary
}

// ProbeMessage is the plain-text answer of a font probe for c.
func (s FontSet) ProbeMessage(c FontChoice, available bool) string {
	name := s.Name(c)
	if available {
		return fmt.Sprintf("OK: %s detectada en el servidor", name)
	}
	next := s.Fallback
	if c == FontFallback {
		next = s.Generic
	}
	return fmt.Sprintf("NO: %s no detectada (se usará %s como fallback)", name, next)
}
