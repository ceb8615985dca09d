package provider

import "time"

// Bar is one day of raw OHLCV data from the provider. Any value the provider
// did not report is nil.
type Bar struct {
	Date          time.Time
	Open          *float64
	High          *float64
	Low           *float64
	Close         *float64
	AdjustedClose *float64
	Volume        *int64
}

// TopHolding is one constituent row from the provider's holdings table.
// Weight is the raw fraction as reported (0.07 means 7%).
type TopHolding struct {
	Symbol string
	Name   string
	Weight *float64
}

// OperationsTable is the fund-operations column pair: the fund's own figures
// next to its category average.
type OperationsTable struct {
	ExpenseRatio         *float64
	HoldingsTurnover     *float64
	TotalNetAssets       *float64
	CategoryExpenseRatio *float64
	CategoryTurnover     *float64
}

// EquityTable is the equity-holdings metrics column pair.
type EquityTable struct {
	PriceEarnings          *float64
	PriceBook              *float64
	PriceSales             *float64
	PriceCashflow          *float64
	MedianMarketCap        *float64
	GeometricMeanMarketCap *float64
	CategoryPriceEarnings  *float64
	CategoryPriceBook      *float64
	CategoryPriceSales     *float64
}

// FundsData is the fund-composition structure for one symbol. Every part is
// independently optional: the provider frequently reports some sections and
// not others, so consumers must treat nil members as "no data", not as an
// error.
type FundsData struct {
	TopHoldings      []TopHolding
	SectorWeightings map[string]float64 // sector name -> fraction
	FundOperations   *OperationsTable
	EquityHoldings   *EquityTable
	FundOverview     FieldMap
	Description      string
}
