package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fundboard/etf-service/internal/models"
)

// ReplaceFundOperations replaces the single fund-operations snapshot for a
// fund. A nil record clears the snapshot. The one-row-per-fund invariant is
// enforced by the unique fund_id constraint; delete-then-insert inside the
// transaction keeps the swap atomic.
func (db *DB) ReplaceFundOperations(fundID int64, o *models.FundOperations) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM fund_operations WHERE fund_id = $1`, fundID); err != nil {
		return fmt.Errorf("failed to delete fund operations: %w", err)
	}

	if o == nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	now := time.Now()
	err = tx.QueryRow(`
		INSERT INTO fund_operations (
			fund_id, annual_report_expense_ratio, annual_holdings_turnover,
			total_net_assets, category_average_expense_ratio,
			category_average_turnover, as_of_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		o.FundID, o.AnnualReportExpenseRatio, o.AnnualHoldingsTurnover,
		o.TotalNetAssets, o.CategoryAverageExpenseRatio,
		o.CategoryAverageTurnover, o.AsOfDate, now,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert fund operations: %w", err)
	}
	o.CreatedAt = now

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetFundOperations returns the fund-operations snapshot, or ErrNotFound
func (db *DB) GetFundOperations(fundID int64) (*models.FundOperations, error) {
	query := `
		SELECT id, fund_id, annual_report_expense_ratio, annual_holdings_turnover,
		       total_net_assets, category_average_expense_ratio,
		       category_average_turnover, as_of_date, created_at
		FROM fund_operations
		WHERE fund_id = $1
	`
	var o models.FundOperations
	err := db.conn.QueryRow(query, fundID).Scan(
		&o.ID, &o.FundID, &o.AnnualReportExpenseRatio, &o.AnnualHoldingsTurnover,
		&o.TotalNetAssets, &o.CategoryAverageExpenseRatio,
		&o.CategoryAverageTurnover, &o.AsOfDate, &o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fund operations for fund %d: %w", fundID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund operations: %w", err)
	}
	return &o, nil
}

// ReplaceEquityMetrics replaces the single equity-metrics snapshot for a
// fund. A nil record clears the snapshot.
func (db *DB) ReplaceEquityMetrics(fundID int64, m *models.EquityMetrics) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM equity_metrics WHERE fund_id = $1`, fundID); err != nil {
		return fmt.Errorf("failed to delete equity metrics: %w", err)
	}

	if m == nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	now := time.Now()
	err = tx.QueryRow(`
		INSERT INTO equity_metrics (
			fund_id, price_earnings, price_book, price_sales, price_cashflow,
			median_market_cap, geometric_mean_market_cap,
			category_price_earnings, category_price_book, category_price_sales,
			as_of_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		m.FundID, m.PriceEarnings, m.PriceBook, m.PriceSales, m.PriceCashflow,
		m.MedianMarketCap, m.GeometricMeanMarketCap,
		m.CategoryPriceEarnings, m.CategoryPriceBook, m.CategoryPriceSales,
		m.AsOfDate, now,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("failed to insert equity metrics: %w", err)
	}
	m.CreatedAt = now

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetEquityMetrics returns the equity-metrics snapshot, or ErrNotFound
func (db *DB) GetEquityMetrics(fundID int64) (*models.EquityMetrics, error) {
	query := `
		SELECT id, fund_id, price_earnings, price_book, price_sales,
		       price_cashflow, median_market_cap, geometric_mean_market_cap,
		       category_price_earnings, category_price_book, category_price_sales,
		       as_of_date, created_at
		FROM equity_metrics
		WHERE fund_id = $1
	`
	var m models.EquityMetrics
	err := db.conn.QueryRow(query, fundID).Scan(
		&m.ID, &m.FundID, &m.PriceEarnings, &m.PriceBook, &m.PriceSales,
		&m.PriceCashflow, &m.MedianMarketCap, &m.GeometricMeanMarketCap,
		&m.CategoryPriceEarnings, &m.CategoryPriceBook, &m.CategoryPriceSales,
		&m.AsOfDate, &m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("equity metrics for fund %d: %w", fundID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get equity metrics: %w", err)
	}
	return &m, nil
}

// ReplaceFundOverview replaces the single overview snapshot for a fund. A nil
// record clears the snapshot.
func (db *DB) ReplaceFundOverview(fundID int64, o *models.FundOverview) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM fund_overview WHERE fund_id = $1`, fundID); err != nil {
		return fmt.Errorf("failed to delete fund overview: %w", err)
	}

	if o == nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}

	now := time.Now()
	err = tx.QueryRow(`
		INSERT INTO fund_overview (
			fund_id, category_name, family, legal_type, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		o.FundID, o.CategoryName, o.Family, o.LegalType, o.Description, now,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert fund overview: %w", err)
	}
	o.CreatedAt = now

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetFundOverview returns the overview snapshot, or ErrNotFound
func (db *DB) GetFundOverview(fundID int64) (*models.FundOverview, error) {
	query := `
		SELECT id, fund_id, category_name, family, legal_type, description, created_at
		FROM fund_overview
		WHERE fund_id = $1
	`
	var o models.FundOverview
	err := db.conn.QueryRow(query, fundID).Scan(
		&o.ID, &o.FundID, &o.CategoryName, &o.Family, &o.LegalType,
		&o.Description, &o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("fund overview for fund %d: %w", fundID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fund overview: %w", err)
	}
	return &o, nil
}
