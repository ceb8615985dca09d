package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fundboard/etf-service/internal/models"
)

const defaultTTL = 5 * time.Minute

// PriceCache is a Redis-backed cache for the latest price of each fund.
// Cache failures are logged and treated as misses so Redis outages never
// break reads.
type PriceCache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// New creates a PriceCache and verifies connectivity.
func New(addr string, db int, logger zerolog.Logger) (*PriceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &PriceCache{
		client: client,
		ttl:    defaultTTL,
		log:    logger.With().Str("component", "price_cache").Logger(),
	}, nil
}

// GetLatestPrice returns the cached latest price for a fund and whether it
// was present.
func (c *PriceCache) GetLatestPrice(ctx context.Context, fundID int64) (*models.PricePoint, bool) {
	data, err := c.client.Get(ctx, latestPriceKey(fundID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Int64("fund_id", fundID).Msg("cache read failed")
		}
		return nil, false
	}

	var point models.PricePoint
	if err := json.Unmarshal(data, &point); err != nil {
		c.log.Warn().Err(err).Int64("fund_id", fundID).Msg("cache entry is not decodable")
		return nil, false
	}
	return &point, true
}

// SetLatestPrice stores the latest price for a fund.
func (c *PriceCache) SetLatestPrice(ctx context.Context, fundID int64, point *models.PricePoint) {
	data, err := json.Marshal(point)
	if err != nil {
		c.log.Warn().Err(err).Int64("fund_id", fundID).Msg("failed to encode price point")
		return
	}
	if err := c.client.Set(ctx, latestPriceKey(fundID), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Int64("fund_id", fundID).Msg("cache write failed")
	}
}

// InvalidateLatestPrice drops the cached latest price for a fund, typically
// after an ingestion run replaced it.
func (c *PriceCache) InvalidateLatestPrice(ctx context.Context, fundID int64) {
	if err := c.client.Del(ctx, latestPriceKey(fundID)).Err(); err != nil {
		c.log.Warn().Err(err).Int64("fund_id", fundID).Msg("cache invalidation failed")
	}
}

// Close releases the Redis connection.
func (c *PriceCache) Close() error {
	return c.client.Close()
}

func latestPriceKey(fundID int64) string {
	return fmt.Sprintf("fund:%d:latest_price", fundID)
}
