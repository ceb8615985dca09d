package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMapStr(t *testing.T) {
	m := FieldMap{
		"name":   "SPDR S&P 500 ETF Trust",
		"empty":  "",
		"number": 42.0,
	}

	require.NotNil(t, m.Str("name"))
	assert.Equal(t, "SPDR S&P 500 ETF Trust", *m.Str("name"))
	assert.Nil(t, m.Str("empty"), "empty strings count as missing")
	assert.Nil(t, m.Str("number"), "mistyped fields degrade to nil")
	assert.Nil(t, m.Str("absent"))

	assert.Equal(t, "fallback", m.StrOr("absent", "fallback"))
	assert.Equal(t, "SPDR S&P 500 ETF Trust", m.StrOr("name", "fallback"))
}

func TestFieldMapFloat(t *testing.T) {
	m := FieldMap{
		"price":  550.25,
		"count":  int64(3),
		"string": "not a number",
		"null":   nil,
	}

	require.NotNil(t, m.Float("price"))
	assert.Equal(t, 550.25, *m.Float("price"))
	require.NotNil(t, m.Float("count"))
	assert.Equal(t, 3.0, *m.Float("count"))
	assert.Nil(t, m.Float("string"))
	assert.Nil(t, m.Float("null"))
	assert.Nil(t, m.Float("absent"))
}

func TestFieldMapInt(t *testing.T) {
	m := FieldMap{"volume": 1234567.0, "fractional": 99.9}

	require.NotNil(t, m.Int("volume"))
	assert.Equal(t, int64(1234567), *m.Int("volume"))
	require.NotNil(t, m.Int("fractional"))
	assert.Equal(t, int64(99), *m.Int("fractional"), "fractions truncate")
	assert.Nil(t, m.Int("absent"))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(ErrRateLimited))
	assert.True(t, IsRateLimited(assert.AnError) == false)

	// Provider errors frequently surface only as message text.
	assert.True(t, IsRateLimited(errText("got 429 from upstream")))
	assert.True(t, IsRateLimited(errText("Too Many Requests")))
	assert.False(t, IsRateLimited(errText("connection refused")))
	assert.False(t, IsRateLimited(nil))
}

type errText string

func (e errText) Error() string { return string(e) }
