package models

import "time"

// Holding is one constituent position in a fund's snapshot. The full snapshot
// is replaced on every ingestion run: prior rows for the fund are deleted
// before the new set is inserted.
type Holding struct {
	ID     int64 `json:"id"`
	FundID int64 `json:"fund_id"`

	Symbol string   `json:"symbol"`
	Name   *string  `json:"name,omitempty"`
	Weight *float64 `json:"weight,omitempty"` // fraction of portfolio as reported (0.07 = 7%)

	Sector     *string `json:"sector,omitempty"`
	Industry   *string `json:"industry,omitempty"`
	Country    *string `json:"country,omitempty"`
	AssetClass *string `json:"asset_class,omitempty"`

	AsOfDate  time.Time `json:"as_of_date"`
	CreatedAt time.Time `json:"created_at"`
}

// SectorAllocation is one sector weight in a fund's snapshot, stored as a
// percentage (fraction x 100). Same replace-on-ingest semantics as Holding.
type SectorAllocation struct {
	ID     int64 `json:"id"`
	FundID int64 `json:"fund_id"`

	SectorName           string  `json:"sector_name"`
	AllocationPercentage float64 `json:"allocation_percentage"`

	AsOfDate  time.Time `json:"as_of_date"`
	CreatedAt time.Time `json:"created_at"`
}
