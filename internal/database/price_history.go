package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fundboard/etf-service/internal/models"
)

const priceColumns = `
	id, fund_id, date, open, high, low, close, adjusted_close, volume,
	daily_return, cumulative_return, created_at`

// PriceDateExists checks whether a price row already exists for the fund on
// the given calendar date. Ingestion skips dates that are already present.
func (db *DB) PriceDateExists(fundID int64, date time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM price_history WHERE fund_id = $1 AND date = $2)`
	var exists bool
	if err := db.conn.QueryRow(query, fundID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check price date: %w", err)
	}
	return exists, nil
}

// InsertPricePoints inserts a batch of price rows in a single transaction.
// ON CONFLICT DO NOTHING keeps the (fund, date) uniqueness invariant even if
// two ingestion runs race on the same symbol.
func (db *DB) InsertPricePoints(points []*models.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO price_history (
			fund_id, date, open, high, low, close, adjusted_close, volume, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (fund_id, date) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range points {
		_, err := stmt.Exec(
			p.FundID, p.Date, p.Open, p.High, p.Low, p.Close, p.AdjustedClose,
			p.Volume, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert price point for %s: %w",
				p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceHistory returns price rows for a fund ordered by date ascending.
// start and end bound the series when non-nil; both bounds are inclusive.
func (db *DB) GetPriceHistory(fundID int64, start, end *time.Time) ([]*models.PricePoint, error) {
	query := `SELECT ` + priceColumns + ` FROM price_history WHERE fund_id = $1`
	args := []any{fundID}

	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date ASC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	var points []*models.PricePoint
	for rows.Next() {
		p, err := scanPricePoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// GetLatestPrice returns the most recent price row for a fund
func (db *DB) GetLatestPrice(fundID int64) (*models.PricePoint, error) {
	query := `SELECT ` + priceColumns + ` FROM price_history
		WHERE fund_id = $1 ORDER BY date DESC LIMIT 1`

	p, err := scanPricePoint(db.conn.QueryRow(query, fundID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no price data for fund %d: %w", fundID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest price: %w", err)
	}
	return p, nil
}

// CountPricePoints returns the number of persisted price rows for a fund
func (db *DB) CountPricePoints(fundID int64) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT count(*) FROM price_history WHERE fund_id = $1`, fundID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count price points: %w", err)
	}
	return count, nil
}

func scanPricePoint(row interface{ Scan(dest ...any) error }) (*models.PricePoint, error) {
	var p models.PricePoint
	err := row.Scan(
		&p.ID, &p.FundID, &p.Date, &p.Open, &p.High, &p.Low, &p.Close,
		&p.AdjustedClose, &p.Volume, &p.DailyReturn, &p.CumulativeReturn,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
