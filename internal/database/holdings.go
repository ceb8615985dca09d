package database

import (
	"fmt"
	"time"

	"github.com/fundboard/etf-service/internal/models"
)

// ReplaceHoldings deletes every existing holding for the fund and inserts the
// new snapshot set in one transaction, so readers never see a union of old and
// new constituents.
func (db *DB) ReplaceHoldings(fundID int64, holdings []*models.Holding) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM holdings WHERE fund_id = $1`, fundID); err != nil {
		return fmt.Errorf("failed to delete holdings: %w", err)
	}

	now := time.Now()
	for _, h := range holdings {
		err := tx.QueryRow(`
			INSERT INTO holdings (
				fund_id, symbol, name, weight, sector, industry, country,
				asset_class, as_of_date, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`,
			fundID, h.Symbol, h.Name, h.Weight, h.Sector, h.Industry, h.Country,
			h.AssetClass, h.AsOfDate, now,
		).Scan(&h.ID)
		if err != nil {
			return fmt.Errorf("failed to insert holding %s: %w", h.Symbol, err)
		}
		h.FundID = fundID
		h.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetHoldings returns all holdings for a fund, newest snapshot first, heaviest
// weights first within a snapshot.
func (db *DB) GetHoldings(fundID int64) ([]*models.Holding, error) {
	query := `
		SELECT id, fund_id, symbol, name, weight, sector, industry, country,
		       asset_class, as_of_date, created_at
		FROM holdings
		WHERE fund_id = $1
		ORDER BY as_of_date DESC, weight DESC NULLS LAST
	`
	rows, err := db.conn.Query(query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.Holding
	for rows.Next() {
		var h models.Holding
		err := rows.Scan(
			&h.ID, &h.FundID, &h.Symbol, &h.Name, &h.Weight, &h.Sector,
			&h.Industry, &h.Country, &h.AssetClass, &h.AsOfDate, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, &h)
	}

	return holdings, rows.Err()
}

// CountHoldings returns the number of persisted holdings for a fund
func (db *DB) CountHoldings(fundID int64) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT count(*) FROM holdings WHERE fund_id = $1`, fundID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count holdings: %w", err)
	}
	return count, nil
}
