package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fundboard/etf-service/internal/models"
)

const fundColumns = `
	id, symbol, name, long_name, short_name, category, family, exchange,
	full_exchange_name, currency, region, country, legal_type, website, summary,
	net_assets, nav, expense_ratio, net_expense_ratio, yield_rate, pe_ratio,
	pb_ratio, beta, book_value, dividend_yield, eps_trailing_twelve_months,
	trailing_peg_ratio, ytd_return, three_year_return, five_year_return,
	current_price, previous_close, open_price, day_high, day_low,
	regular_market_change, regular_market_change_percent, post_market_price,
	post_market_change, post_market_change_percent, bid, ask, bid_size,
	ask_size, volume, average_volume, average_volume_10days,
	shares_outstanding, market_cap, fifty_two_week_low, fifty_two_week_high,
	fifty_two_week_change_percent, fifty_two_week_range, fifty_day_average,
	two_hundred_day_average, fifty_day_average_change,
	fifty_day_average_change_percent, two_hundred_day_average_change,
	two_hundred_day_average_change_percent, trailing_annual_dividend_rate,
	trailing_annual_dividend_yield, quote_type, market, market_state,
	financial_currency, created_at, updated_at, last_data_update`

// UpsertFund inserts a fund or, when the symbol already exists, updates the
// existing row in place. Re-ingesting a symbol therefore never duplicates it.
func (db *DB) UpsertFund(f *models.Fund) error {
	query := `
		INSERT INTO funds (
			symbol, name, long_name, short_name, category, family, exchange,
			full_exchange_name, currency, region, country, legal_type, website,
			summary, net_assets, nav, expense_ratio, net_expense_ratio, yield_rate,
			pe_ratio, pb_ratio, beta, book_value, dividend_yield,
			eps_trailing_twelve_months, trailing_peg_ratio, ytd_return,
			three_year_return, five_year_return, current_price, previous_close,
			open_price, day_high, day_low, regular_market_change,
			regular_market_change_percent, post_market_price, post_market_change,
			post_market_change_percent, bid, ask, bid_size,
			ask_size, volume, average_volume, average_volume_10days,
			shares_outstanding, market_cap, fifty_two_week_low, fifty_two_week_high,
			fifty_two_week_change_percent, fifty_two_week_range, fifty_day_average,
			two_hundred_day_average, fifty_day_average_change,
			fifty_day_average_change_percent, two_hundred_day_average_change,
			two_hundred_day_average_change_percent, trailing_annual_dividend_rate,
			trailing_annual_dividend_yield, quote_type, market, market_state,
			financial_currency, created_at, updated_at, last_data_update
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39, $40, $41, $42, $43, $44,
			$45, $46, $47, $48, $49, $50, $51, $52, $53, $54, $55, $56, $57, $58,
			$59, $60, $61, $62, $63, $64, $65, $66, $67
		)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			long_name = EXCLUDED.long_name,
			short_name = EXCLUDED.short_name,
			category = EXCLUDED.category,
			family = EXCLUDED.family,
			exchange = EXCLUDED.exchange,
			full_exchange_name = EXCLUDED.full_exchange_name,
			currency = EXCLUDED.currency,
			region = EXCLUDED.region,
			country = EXCLUDED.country,
			legal_type = EXCLUDED.legal_type,
			website = EXCLUDED.website,
			summary = EXCLUDED.summary,
			net_assets = EXCLUDED.net_assets,
			nav = EXCLUDED.nav,
			expense_ratio = EXCLUDED.expense_ratio,
			net_expense_ratio = EXCLUDED.net_expense_ratio,
			yield_rate = EXCLUDED.yield_rate,
			pe_ratio = EXCLUDED.pe_ratio,
			pb_ratio = EXCLUDED.pb_ratio,
			beta = EXCLUDED.beta,
			book_value = EXCLUDED.book_value,
			dividend_yield = EXCLUDED.dividend_yield,
			eps_trailing_twelve_months = EXCLUDED.eps_trailing_twelve_months,
			trailing_peg_ratio = EXCLUDED.trailing_peg_ratio,
			ytd_return = EXCLUDED.ytd_return,
			three_year_return = EXCLUDED.three_year_return,
			five_year_return = EXCLUDED.five_year_return,
			current_price = EXCLUDED.current_price,
			previous_close = EXCLUDED.previous_close,
			open_price = EXCLUDED.open_price,
			day_high = EXCLUDED.day_high,
			day_low = EXCLUDED.day_low,
			regular_market_change = EXCLUDED.regular_market_change,
			regular_market_change_percent = EXCLUDED.regular_market_change_percent,
			post_market_price = EXCLUDED.post_market_price,
			post_market_change = EXCLUDED.post_market_change,
			post_market_change_percent = EXCLUDED.post_market_change_percent,
			bid = EXCLUDED.bid,
			ask = EXCLUDED.ask,
			bid_size = EXCLUDED.bid_size,
			ask_size = EXCLUDED.ask_size,
			volume = EXCLUDED.volume,
			average_volume = EXCLUDED.average_volume,
			average_volume_10days = EXCLUDED.average_volume_10days,
			shares_outstanding = EXCLUDED.shares_outstanding,
			market_cap = EXCLUDED.market_cap,
			fifty_two_week_low = EXCLUDED.fifty_two_week_low,
			fifty_two_week_high = EXCLUDED.fifty_two_week_high,
			fifty_two_week_change_percent = EXCLUDED.fifty_two_week_change_percent,
			fifty_two_week_range = EXCLUDED.fifty_two_week_range,
			fifty_day_average = EXCLUDED.fifty_day_average,
			two_hundred_day_average = EXCLUDED.two_hundred_day_average,
			fifty_day_average_change = EXCLUDED.fifty_day_average_change,
			fifty_day_average_change_percent = EXCLUDED.fifty_day_average_change_percent,
			two_hundred_day_average_change = EXCLUDED.two_hundred_day_average_change,
			two_hundred_day_average_change_percent = EXCLUDED.two_hundred_day_average_change_percent,
			trailing_annual_dividend_rate = EXCLUDED.trailing_annual_dividend_rate,
			trailing_annual_dividend_yield = EXCLUDED.trailing_annual_dividend_yield,
			quote_type = EXCLUDED.quote_type,
			market = EXCLUDED.market,
			market_state = EXCLUDED.market_state,
			financial_currency = EXCLUDED.financial_currency,
			updated_at = EXCLUDED.updated_at,
			last_data_update = EXCLUDED.last_data_update
		RETURNING id, created_at
	`

	now := time.Now()
	err := db.conn.QueryRow(query,
		f.Symbol, f.Name, f.LongName, f.ShortName, f.Category, f.Family, f.Exchange,
		f.FullExchangeName, f.Currency, f.Region, f.Country, f.LegalType, f.Website,
		f.Summary, f.NetAssets, f.NAV, f.ExpenseRatio, f.NetExpenseRatio,
		f.YieldRate, f.PERatio, f.PBRatio, f.Beta, f.BookValue, f.DividendYield,
		f.EPSTrailing, f.TrailingPEG, f.YTDReturn, f.ThreeYearReturn,
		f.FiveYearReturn, f.CurrentPrice, f.PreviousClose, f.OpenPrice, f.DayHigh,
		f.DayLow, f.RegularMarketChange, f.RegularMarketChangePercent,
		f.PostMarketPrice, f.PostMarketChange, f.PostMarketChangePercent,
		f.Bid, f.Ask, f.BidSize,
		f.AskSize, f.Volume, f.AverageVolume, f.AverageVolume10Days,
		f.SharesOutstanding, f.MarketCap, f.FiftyTwoWeekLow, f.FiftyTwoWeekHigh,
		f.FiftyTwoWeekChangePercent, f.FiftyTwoWeekRange, f.FiftyDayAverage,
		f.TwoHundredDayAverage, f.FiftyDayAverageChange,
		f.FiftyDayAverageChangePercent, f.TwoHundredDayAverageChange,
		f.TwoHundredDayAverageChangePercent, f.TrailingAnnualDividendRate,
		f.TrailingAnnualDividendYield, f.QuoteType, f.Market, f.MarketState,
		f.FinancialCurrency, now, now, f.LastDataUpdate,
	).Scan(&f.ID, &f.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert fund: %w", err)
	}
	f.UpdatedAt = now
	return nil
}

func scanFund(row interface{ Scan(dest ...any) error }) (*models.Fund, error) {
	var f models.Fund
	err := row.Scan(
		&f.ID, &f.Symbol, &f.Name, &f.LongName, &f.ShortName, &f.Category, &f.Family,
		&f.Exchange, &f.FullExchangeName, &f.Currency, &f.Region, &f.Country,
		&f.LegalType, &f.Website, &f.Summary, &f.NetAssets, &f.NAV, &f.ExpenseRatio,
		&f.NetExpenseRatio, &f.YieldRate, &f.PERatio, &f.PBRatio, &f.Beta,
		&f.BookValue, &f.DividendYield, &f.EPSTrailing, &f.TrailingPEG,
		&f.YTDReturn, &f.ThreeYearReturn, &f.FiveYearReturn, &f.CurrentPrice,
		&f.PreviousClose, &f.OpenPrice, &f.DayHigh, &f.DayLow,
		&f.RegularMarketChange, &f.RegularMarketChangePercent,
		&f.PostMarketPrice, &f.PostMarketChange, &f.PostMarketChangePercent,
		&f.Bid, &f.Ask,
		&f.BidSize, &f.AskSize, &f.Volume, &f.AverageVolume, &f.AverageVolume10Days,
		&f.SharesOutstanding, &f.MarketCap, &f.FiftyTwoWeekLow, &f.FiftyTwoWeekHigh,
		&f.FiftyTwoWeekChangePercent, &f.FiftyTwoWeekRange, &f.FiftyDayAverage,
		&f.TwoHundredDayAverage, &f.FiftyDayAverageChange,
		&f.FiftyDayAverageChangePercent, &f.TwoHundredDayAverageChange,
		&f.TwoHundredDayAverageChangePercent, &f.TrailingAnnualDividendRate,
		&f.TrailingAnnualDividendYield, &f.QuoteType, &f.Market, &f.MarketState,
		&f.FinancialCurrency, &f.CreatedAt, &f.UpdatedAt, &f.LastDataUpdate,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFundBySymbol retrieves a fund by its ticker symbol
func (db *DB) GetFundBySymbol(symbol string) (*models.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds WHERE symbol = $1`

	f, err := scanFund(db.conn.QueryRow(query, symbol))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fund %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}
	return f, nil
}

// GetFundByID retrieves a fund by its primary key
func (db *DB) GetFundByID(id int64) (*models.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds WHERE id = $1`

	f, err := scanFund(db.conn.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fund %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}
	return f, nil
}

// ListFunds returns all funds ordered by symbol
func (db *DB) ListFunds() ([]*models.Fund, error) {
	query := `SELECT ` + fundColumns + ` FROM funds ORDER BY symbol ASC`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}
	defer rows.Close()

	var funds []*models.Fund
	for rows.Next() {
		f, err := scanFund(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fund: %w", err)
		}
		funds = append(funds, f)
	}

	return funds, rows.Err()
}

// FundExists checks whether a fund with the given symbol is already persisted
func (db *DB) FundExists(symbol string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM funds WHERE symbol = $1)`
	var exists bool
	if err := db.conn.QueryRow(query, symbol).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check fund existence: %w", err)
	}
	return exists, nil
}

// DeleteFund removes a fund and, through cascading foreign keys, all of its
// price history and snapshot rows.
func (db *DB) DeleteFund(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM funds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fund: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("fund %d: %w", id, ErrNotFound)
	}
	return nil
}
