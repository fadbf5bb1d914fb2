package domain

import (
	"net/url"
	"strings"
)

// Field identifies one submitted report value. Key is the canonical name,
// Alias the Spanish name used by the demo form.
type Field struct {
	Key   string
	Alias string
}

// Report fields.
var (
	// FieldName is the full name ("Apellido y Nombre").
	FieldName = Field{Key: "name", Alias: "nombre"}
	// FieldIdentifier is the national identity number (DNI).
	FieldIdentifier = Field{Key: "identifier", Alias: "dni"}
	// FieldEmail is the contact email; both names coincide.
	FieldEmail = Field{Key: "email", Alias: "email"}
	// FieldPhone is the contact phone number.
	FieldPhone = Field{Key: "phone", Alias: "telefono"}
	// FieldAddress is the postal address.
	FieldAddress = Field{Key: "address", Alias: "direccion"}
	// FieldMessage is the free-text body of the report.
	FieldMessage = Field{Key: "message", Alias: "mensaje"}
)

// Fields lists every report field in document order.
var Fields = []Field{FieldName, FieldIdentifier, FieldEmail, FieldPhone, FieldAddress, FieldMessage}

// ReportRequest carries the untrusted text of a single report submission.
// Absent fields are empty strings.
type ReportRequest struct {
	Name       string
	Identifier string
	Email      string
	Phone      string
	Address    string
	Message    string
	Font       FontChoice
}

// LookupFunc returns the raw value submitted under key, if any.
type LookupFunc func(key string) (string, bool)

// NewReportRequest builds a request from a key lookup. The canonical key wins
// over the alias; a field missing under both names is empty.
func NewReportRequest(lookup LookupFunc, font FontChoice) ReportRequest {
	get := func(f Field) string {
		if v, ok := lookup(f.Key); ok {
			return v
		}
		if f.Alias != f.Key {
			if v, ok := lookup(f.Alias); ok {
				return v
			}
		}
		return ""
	}
	return ReportRequest{
		Name:       get(FieldName),
		Identifier: get(FieldIdentifier),
		Email:      get(FieldEmail),
		Phone:      get(FieldPhone),
		Address:    get(FieldAddress),
		Message:    get(FieldMessage),
		Font:       font,
	}
}

// RequestFromMap is NewReportRequest over a plain map.
func RequestFromMap(m map[string]string, font FontChoice) ReportRequest {
	return NewReportRequest(func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}, font)
}

// Value returns the text of f.
func (r ReportRequest) Value(f Field) string {
	switch f.Key {
	case FieldName.Key:
		return r.Name
	case FieldIdentifier.Key:
		return r.Identifier
	case FieldEmail.Key:
		return r.Email
	case FieldPhone.Key:
		return r.Phone
	case FieldAddress.Key:
		return r.Address
	case FieldMessage.Key:
		return r.Message
	}
	return ""
}

// Query encodes the request as template endpoint query parameters.
func (r ReportRequest) Query() url.Values {
	q := url.Values{}
	for _, f := range Fields {
		q.Set(f.Key, r.Value(f))
	}
	q.Set("font", r.Font.String())
	return q
}

// FontChoice selects between the primary report font and its fallback.
type FontChoice int

const (
	// FontPrimary asks for the primary font, falling back to the fallback font.
	FontPrimary FontChoice = iota
	// FontFallback asks for the fallback font only.
	FontFallback
)

// ParseFontChoice maps the public selector to a choice. Only "carlito" selects
// the fallback; anything else, including the empty string, is primary.
func ParseFontChoice(s string) FontChoice {
	if strings.EqualFold(strings.TrimSpace(s), "carlito") {
		return FontFallback
	}
	return FontPrimary
}

// String returns the public selector, "calibri" or "carlito".
func (c FontChoice) String() string {
	if c == FontFallback {
		return "carlito"
	}
	return "calibri"
}
