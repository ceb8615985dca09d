package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/fundboard/etf-service/internal/provider"
)

const (
	maxFetchAttempts  = 3
	initialRetryDelay = 30 * time.Second
)

// fetchBasicInfoWithRetry fetches the basic field set, retrying with doubling
// delays when the provider rate-limits us. Any other error fails immediately.
func (ing *Ingester) fetchBasicInfoWithRetry(ctx context.Context, symbol string) (provider.FieldMap, error) {
	delay := ing.retryDelay
	var lastErr error

	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		fields, err := ing.provider.BasicInfo(ctx, symbol)
		if err == nil {
			return fields, nil
		}
		if !provider.IsRateLimited(err) {
			return nil, err
		}
		lastErr = err
		if attempt == maxFetchAttempts {
			break
		}

		ing.log.Warn().
			Str("symbol", symbol).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("rate limited by provider, backing off")
		if err := ing.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2
	}

	return nil, fmt.Errorf("giving up on %s after %d rate-limited attempts: %w",
		symbol, maxFetchAttempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
