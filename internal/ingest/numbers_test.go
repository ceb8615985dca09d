package ingest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionalFloat(t *testing.T) {
	value := 42.5
	nan := math.NaN()
	posInf := math.Inf(1)
	negInf := math.Inf(-1)
	zero := 0.0

	assert.Nil(t, OptionalFloat(nil))
	assert.Nil(t, OptionalFloat(&nan))
	assert.Nil(t, OptionalFloat(&posInf))
	assert.Nil(t, OptionalFloat(&negInf))

	assert.Equal(t, &value, OptionalFloat(&value))
	assert.Equal(t, &zero, OptionalFloat(&zero), "zero is a legitimate value, not missing data")
}

func TestNullDecimal(t *testing.T) {
	nan := math.NaN()
	assert.False(t, nullDecimal(nil).Valid)
	assert.False(t, nullDecimal(&nan).Valid)

	price := 550.25
	got := nullDecimal(&price)
	assert.True(t, got.Valid)
	assert.Equal(t, "550.25", got.Decimal.String())
}
