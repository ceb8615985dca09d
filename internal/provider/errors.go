package provider

import (
	"errors"
	"strings"
)

// ErrRateLimited marks responses rejected by the provider's request throttle.
var ErrRateLimited = errors.New("provider rate limited")

// ErrNoData marks a provider response that carried no usable payload for the
// requested symbol.
var ErrNoData = errors.New("no provider data")

// IsRateLimited reports whether err represents a provider rate limit. The
// substring checks mirror the provider's observed behavior (a bare 429 status
// line or a "Too Many Requests" body); keeping the classification here means
// the retry loop never inspects error text itself.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Too Many Requests")
}
