package models

import "time"

// Fund is the aggregate root for one exchange-traded fund, identified by its
// ticker symbol. Almost every attribute is optional: the data provider returns
// whatever it happens to know about a symbol, so absent values are nil rather
// than zero.
type Fund struct {
	ID     int64  `json:"id"`
	Symbol string `json:"symbol"`

	// Identity
	Name             *string `json:"name,omitempty"`
	LongName         *string `json:"long_name,omitempty"`
	ShortName        *string `json:"short_name,omitempty"`
	Category         *string `json:"category,omitempty"`
	Family           *string `json:"family,omitempty"`
	Exchange         *string `json:"exchange,omitempty"`
	FullExchangeName *string `json:"full_exchange_name,omitempty"`
	Currency         *string `json:"currency,omitempty"`
	Region           *string `json:"region,omitempty"`
	Country          *string `json:"country,omitempty"`
	LegalType        *string `json:"legal_type,omitempty"`
	Website          *string `json:"website,omitempty"`
	Summary          *string `json:"summary,omitempty"`

	// Financial metrics
	NetAssets      *float64 `json:"net_assets,omitempty"`
	NAV            *float64 `json:"nav,omitempty"`
	ExpenseRatio   *float64 `json:"expense_ratio,omitempty"`
	NetExpenseRatio *float64 `json:"net_expense_ratio,omitempty"`
	YieldRate      *float64 `json:"yield_rate,omitempty"`
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	PBRatio        *float64 `json:"pb_ratio,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	BookValue      *float64 `json:"book_value,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`
	EPSTrailing    *float64 `json:"eps_trailing_twelve_months,omitempty"`
	TrailingPEG    *float64 `json:"trailing_peg_ratio,omitempty"`

	// Performance
	YTDReturn       *float64 `json:"ytd_return,omitempty"`
	ThreeYearReturn *float64 `json:"three_year_return,omitempty"`
	FiveYearReturn  *float64 `json:"five_year_return,omitempty"`

	// Current trading data
	CurrentPrice               *float64 `json:"current_price,omitempty"`
	PreviousClose              *float64 `json:"previous_close,omitempty"`
	OpenPrice                  *float64 `json:"open_price,omitempty"`
	DayHigh                    *float64 `json:"day_high,omitempty"`
	DayLow                     *float64 `json:"day_low,omitempty"`
	RegularMarketChange        *float64 `json:"regular_market_change,omitempty"`
	RegularMarketChangePercent *float64 `json:"regular_market_change_percent,omitempty"`
	PostMarketPrice            *float64 `json:"post_market_price,omitempty"`
	PostMarketChange           *float64 `json:"post_market_change,omitempty"`
	PostMarketChangePercent    *float64 `json:"post_market_change_percent,omitempty"`
	Bid                        *float64 `json:"bid,omitempty"`
	Ask                        *float64 `json:"ask,omitempty"`
	BidSize                    *int64   `json:"bid_size,omitempty"`
	AskSize                    *int64   `json:"ask_size,omitempty"`

	// Volume
	Volume              *int64 `json:"volume,omitempty"`
	AverageVolume       *int64 `json:"average_volume,omitempty"`
	AverageVolume10Days *int64 `json:"average_volume_10days,omitempty"`
	SharesOutstanding   *int64 `json:"shares_outstanding,omitempty"`
	MarketCap           *int64 `json:"market_cap,omitempty"`

	// 52-week performance
	FiftyTwoWeekLow           *float64 `json:"fifty_two_week_low,omitempty"`
	FiftyTwoWeekHigh          *float64 `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekChangePercent *float64 `json:"fifty_two_week_change_percent,omitempty"`
	FiftyTwoWeekRange         *string  `json:"fifty_two_week_range,omitempty"`

	// Moving averages
	FiftyDayAverage                   *float64 `json:"fifty_day_average,omitempty"`
	TwoHundredDayAverage              *float64 `json:"two_hundred_day_average,omitempty"`
	FiftyDayAverageChange             *float64 `json:"fifty_day_average_change,omitempty"`
	FiftyDayAverageChangePercent      *float64 `json:"fifty_day_average_change_percent,omitempty"`
	TwoHundredDayAverageChange        *float64 `json:"two_hundred_day_average_change,omitempty"`
	TwoHundredDayAverageChangePercent *float64 `json:"two_hundred_day_average_change_percent,omitempty"`

	// Dividends
	TrailingAnnualDividendRate  *float64 `json:"trailing_annual_dividend_rate,omitempty"`
	TrailingAnnualDividendYield *float64 `json:"trailing_annual_dividend_yield,omitempty"`

	// Market metadata
	QuoteType         *string `json:"quote_type,omitempty"`
	Market            *string `json:"market,omitempty"`
	MarketState       *string `json:"market_state,omitempty"`
	FinancialCurrency *string `json:"financial_currency,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastDataUpdate *time.Time `json:"last_data_update,omitempty"`
}

// FundDetail is a Fund together with its one-to-one snapshot entities, the
// shape returned by the fund detail endpoint.
type FundDetail struct {
	Fund
	Overview      *FundOverview   `json:"fund_overview,omitempty"`
	Operations    *FundOperations `json:"fund_operations,omitempty"`
	EquityMetrics *EquityMetrics  `json:"equity_metrics,omitempty"`
}
