package ingest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSymbol reports a ticker symbol that failed validation.
var ErrInvalidSymbol = errors.New("invalid symbol")

const maxSymbolLength = 10

// Valid symbols are alphanumeric runs optionally joined by a single dot or
// dash, e.g. SPY, BRK.B, ^GSPC is rejected.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9]+([.-][A-Z0-9]+)*$`)

// ValidateSymbol normalizes a raw ticker symbol (trim, uppercase) and checks
// it against the accepted format. It returns the canonical symbol or
// ErrInvalidSymbol.
func ValidateSymbol(raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is empty", ErrInvalidSymbol)
	}
	if len(symbol) > maxSymbolLength {
		return "", fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidSymbol, symbol, maxSymbolLength)
	}
	if !symbolPattern.MatchString(symbol) {
		return "", fmt.Errorf("%w: %q contains unsupported characters", ErrInvalidSymbol, symbol)
	}
	return symbol, nil
}
