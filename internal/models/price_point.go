package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one day of OHLCV data for a fund. Rows are unique per
// (fund, date) and ingestion only ever appends: a date that is already
// persisted is never overwritten. Every price component is nullable; the
// provider sometimes reports partial bars and the row is kept either way.
//
// DailyReturn and CumulativeReturn are reserved for a future computation pass
// and are not populated by ingestion.
type PricePoint struct {
	ID     int64     `json:"id"`
	FundID int64     `json:"fund_id"`
	Date   time.Time `json:"date"`

	Open          decimal.NullDecimal `json:"open"`
	High          decimal.NullDecimal `json:"high"`
	Low           decimal.NullDecimal `json:"low"`
	Close         decimal.NullDecimal `json:"close"`
	AdjustedClose decimal.NullDecimal `json:"adjusted_close"`
	Volume        *int64              `json:"volume,omitempty"`

	DailyReturn      *float64 `json:"daily_return,omitempty"`
	CumulativeReturn *float64 `json:"cumulative_return,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
