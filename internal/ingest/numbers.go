package ingest

import (
	"math"

	"github.com/shopspring/decimal"
)

// OptionalFloat sanitizes an optional float from the provider: NaN and
// infinities become nil so they never reach the database or JSON encoding.
func OptionalFloat(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// nullDecimal converts an optional provider float into a nullable decimal,
// dropping non-finite values the same way OptionalFloat does.
func nullDecimal(v *float64) decimal.NullDecimal {
	f := OptionalFloat(v)
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*f), Valid: true}
}
