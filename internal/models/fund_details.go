package models

import "time"

// FundOperations holds the most recent fund-operations snapshot for a fund,
// including category averages for comparison. At most one live row per fund.
type FundOperations struct {
	ID     int64 `json:"id"`
	FundID int64 `json:"fund_id"`

	AnnualReportExpenseRatio    *float64 `json:"annual_report_expense_ratio,omitempty"`
	AnnualHoldingsTurnover      *float64 `json:"annual_holdings_turnover,omitempty"`
	TotalNetAssets              *float64 `json:"total_net_assets,omitempty"`
	CategoryAverageExpenseRatio *float64 `json:"category_average_expense_ratio,omitempty"`
	CategoryAverageTurnover     *float64 `json:"category_average_turnover,omitempty"`

	AsOfDate  time.Time `json:"as_of_date"`
	CreatedAt time.Time `json:"created_at"`
}

// EquityMetrics holds the most recent equity-holdings metrics snapshot for a
// fund. At most one live row per fund.
type EquityMetrics struct {
	ID     int64 `json:"id"`
	FundID int64 `json:"fund_id"`

	PriceEarnings         *float64 `json:"fund_price_earnings,omitempty"`
	PriceBook             *float64 `json:"fund_price_book,omitempty"`
	PriceSales            *float64 `json:"fund_price_sales,omitempty"`
	PriceCashflow         *float64 `json:"fund_price_cashflow,omitempty"`
	MedianMarketCap       *float64 `json:"fund_median_market_cap,omitempty"`
	GeometricMeanMarketCap *float64 `json:"fund_geometric_mean_market_cap,omitempty"`

	CategoryPriceEarnings *float64 `json:"category_price_earnings,omitempty"`
	CategoryPriceBook     *float64 `json:"category_price_book,omitempty"`
	CategoryPriceSales    *float64 `json:"category_price_sales,omitempty"`

	AsOfDate  time.Time `json:"as_of_date"`
	CreatedAt time.Time `json:"created_at"`
}

// FundOverview holds the descriptive overview snapshot for a fund. At most one
// live row per fund.
type FundOverview struct {
	ID     int64 `json:"id"`
	FundID int64 `json:"fund_id"`

	CategoryName *string `json:"category_name,omitempty"`
	Family       *string `json:"family,omitempty"`
	LegalType    *string `json:"legal_type,omitempty"`
	Description  *string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
