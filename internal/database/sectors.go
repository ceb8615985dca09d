package database

import (
	"fmt"
	"time"

	"github.com/fundboard/etf-service/internal/models"
)

// ReplaceSectorAllocations deletes every existing sector row for the fund and
// inserts the new snapshot set in one transaction.
func (db *DB) ReplaceSectorAllocations(fundID int64, sectors []*models.SectorAllocation) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM sector_allocations WHERE fund_id = $1`, fundID); err != nil {
		return fmt.Errorf("failed to delete sector allocations: %w", err)
	}

	now := time.Now()
	for _, s := range sectors {
		err := tx.QueryRow(`
			INSERT INTO sector_allocations (
				fund_id, sector_name, allocation_percentage, as_of_date, created_at
			) VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`,
			fundID, s.SectorName, s.AllocationPercentage, s.AsOfDate, now,
		).Scan(&s.ID)
		if err != nil {
			return fmt.Errorf("failed to insert sector allocation %s: %w", s.SectorName, err)
		}
		s.FundID = fundID
		s.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSectorAllocations returns all sector rows for a fund, newest snapshot
// first, largest allocations first within a snapshot.
func (db *DB) GetSectorAllocations(fundID int64) ([]*models.SectorAllocation, error) {
	query := `
		SELECT id, fund_id, sector_name, allocation_percentage, as_of_date, created_at
		FROM sector_allocations
		WHERE fund_id = $1
		ORDER BY as_of_date DESC, allocation_percentage DESC
	`
	rows, err := db.conn.Query(query, fundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sector allocations: %w", err)
	}
	defer rows.Close()

	var sectors []*models.SectorAllocation
	for rows.Next() {
		var s models.SectorAllocation
		err := rows.Scan(
			&s.ID, &s.FundID, &s.SectorName, &s.AllocationPercentage,
			&s.AsOfDate, &s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sector allocation: %w", err)
		}
		sectors = append(sectors, &s)
	}

	return sectors, rows.Err()
}
