package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDomainErrors_AreDistinctAndUsableWithErrorsIs(t *testing.T) {
	all := []error{ErrRendering, ErrSessionUnavailable, ErrContentNotSettled, ErrExportFailed, ErrInvalidPDF, ErrUnexpectedStatus}
	for i, a := range all {
		if a == nil || a.Error() == "" {
			t.Fatalf("error %d must be non-nil with a message", i)
		}
		for j, b := range all {
			if i != j && a == b {
				t.Fatalf("errors %d and %d must be distinct", i, j)
			}
		}
		wrapped := errors.Join(errors.New("context"), a)
		if !errors.Is(wrapped, a) {
			t.Fatalf("expected errors.Is to match %v", a)
		}
	}
}

func TestNewReportRequest_MissingFieldsAreEmpty(t *testing.T) {
	req := RequestFromMap(map[string]string{"name": "Ana"}, FontPrimary)
	if req.Name != "Ana" {
		t.Fatalf("unexpected name %q", req.Name)
	}
	for _, f := range Fields[1:] {
		if v := req.Value(f); v != "" {
			t.Fatalf("field %s: expected empty, got %q", f.Key, v)
		}
	}
}

func TestNewReportRequest_AliasesAndPrecedence(t *testing.T) {
	req := RequestFromMap(map[string]string{
		"nombre":    "Pérez, Ana Sofía",
		"dni":       "12.345.678",
		"telefono":  "+54 387 123 4567",
		"direccion": "Av. Belgrano 123",
		"mensaje":   "hola",
		"message":   "hello",
	}, FontFallback)

	if req.Name != "Pérez, Ana Sofía" || req.Identifier != "12.345.678" {
		t.Fatalf("aliases not honored: %+v", req)
	}
	if req.Phone != "+54 387 123 4567" || req.Address != "Av. Belgrano 123" {
		t.Fatalf("aliases not honored: %+v", req)
	}
	if req.Message != "hello" {
		t.Fatalf("canonical key must win over alias, got %q", req.Message)
	}
	if req.Font != FontFallback {
		t.Fatalf("font choice lost")
	}
}

func TestReportRequestQuery(t *testing.T) {
	req := ReportRequest{Name: "a&b", Message: "m", Font: FontFallback}
	q := req.Query()
	if q.Get("name") != "a&b" || q.Get("message") != "m" || q.Get("font") != "carlito" {
		t.Fatalf("unexpected query: %v", q)
	}
	if _, ok := q["address"]; !ok {
		t.Fatalf("absent fields must still be encoded")
	}
}

func TestParseFontChoice(t *testing.T) {
	tests := []struct {
		in   string
		want FontChoice
	}{
		{"", FontPrimary},
		{"calibri", FontPrimary},
		{"carlito", FontFallback},
		{" Carlito ", FontFallback},
		{"comic-sans", FontPrimary},
	}
	for _, tc := range tests {
		if got := ParseFontChoice(tc.in); got != tc.want {
			t.Fatalf("ParseFontChoice(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFontSetFamily(t *testing.T) {
	primary := DefaultFontSet.Family(FontPrimary).CSS()
	if primary != `"Calibri", "Carlito", sans-serif` {
		t.Fatalf("unexpected primary family %q", primary)
	}

	fallback := DefaultFontSet.Family(FontFallback).CSS()
	if fallback != `"Carlito", sans-serif` {
		t.Fatalf("unexpected fallback family %q", fallback)
	}
	if strings.Contains(fallback, "Calibri") {
		t.Fatalf("fallback family must not list the primary font")
	}
	if strings.Index(fallback, "Carlito") > strings.Index(fallback, "sans-serif") {
		t.Fatalf("fallback font must come before the generic keyword")
	}
}

func TestFontFamily_QuotesAndDropsBlankNames(t *testing.T) {
	f := NewFontFamily("", `My "Odd" Font`, "  ")
	if got := f.CSS(); got != `"My \"Odd\" Font", sans-serif` {
		t.Fatalf("unexpected css %q", got)
	}
	if len(f.Names()) != 1 || f.Generic() != "sans-serif" {
		t.Fatalf("unexpected family %+v", f)
	}
}

func TestProbeMessage(t *testing.T) {
	if got := DefaultFontSet.ProbeMessage(FontPrimary, true); got != "OK: Calibri detectada en el servidor" {
		t.Fatalf("unexpected message %q", got)
	}
	got := DefaultFontSet.ProbeMessage(FontPrimary, false)
	if !strings.HasPrefix(got, "NO: Calibri") || !strings.Contains(got, "Carlito como fallback") {
		t.Fatalf("unexpected message %q", got)
	}
	got = DefaultFontSet.ProbeMessage(FontFallback, false)
	if !strings.Contains(got, "sans-serif como fallback") {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestReportPageGeometry(t *testing.T) {
	if ReportPage.Format != "A4" || !ReportPage.PrintBackground {
		t.Fatalf("unexpected page %+v", ReportPage)
	}
	if math.Abs(ReportPage.Width-8.2677) > 0.001 || math.Abs(ReportPage.Height-11.6929) > 0.001 {
		t.Fatalf("unexpected A4 size %vx%v", ReportPage.Width, ReportPage.Height)
	}
	m := ReportPage.Margins
	if m.Top != m.Right || m.Right != m.Bottom || m.Bottom != m.Left {
		t.Fatalf("margins must be uniform: %+v", m)
	}
	if math.Abs(m.Top*25.4-25) > 1e-9 {
		t.Fatalf("expected 25mm margins, got %vin", m.Top)
	}
}
