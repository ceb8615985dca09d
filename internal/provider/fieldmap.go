package provider

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// FieldMap is the loosely-typed field set returned by the provider for one
// symbol. Keys are provider-defined strings; values are whatever the provider
// sent. All reads go through the accessors below, which convert extraction
// problems (missing key, unexpected type) into a default plus a warning
// instead of an error. This is the trust boundary with the outside world:
// nothing past this type sees raw provider values.
type FieldMap map[string]any

// Str returns the named field as a string, or nil when absent or mistyped.
func (m FieldMap) Str(field string) *string {
	v, ok := m[field]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		log.Warn().Str("field", field).Interface("value", v).
			Msg("provider field is not a string")
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

// StrOr returns the named field as a string, or def when absent or mistyped.
func (m FieldMap) StrOr(field, def string) string {
	if s := m.Str(field); s != nil {
		return *s
	}
	return def
}

// Float returns the named field as a float64, or nil when absent or mistyped.
// JSON numbers arrive as float64; integer and json.Number values are coerced.
func (m FieldMap) Float(field string) *float64 {
	v, ok := m[field]
	if !ok || v == nil {
		return nil
	}
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	}
	log.Warn().Str("field", field).Interface("value", v).
		Msg("provider field is not numeric")
	return nil
}

// Int returns the named field as an int64, truncating fractional values, or
// nil when absent or mistyped.
func (m FieldMap) Int(field string) *int64 {
	f := m.Float(field)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

// Bool returns the named field as a bool, or nil when absent or mistyped.
func (m FieldMap) Bool(field string) *bool {
	v, ok := m[field]
	if !ok || v == nil {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		log.Warn().Str("field", field).Interface("value", v).
			Msg("provider field is not a boolean")
		return nil
	}
	return &b
}
