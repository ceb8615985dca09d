package database

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundboard/etf-service/internal/models"
)

func TestMigrationsAndRoundTrips(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		expectedTables := []string{
			"funds",
			"price_history",
			"holdings",
			"sector_allocations",
			"fund_operations",
			"equity_metrics",
			"fund_overview",
		}

		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("upsert is idempotent per symbol", func(t *testing.T) {
		testDB.TruncateAll(t)

		name := "Invesco QQQ Trust"
		fund := &models.Fund{Symbol: "QQQ", Name: &name}
		require.NoError(t, testDB.UpsertFund(fund))
		firstID := fund.ID

		updated := "Invesco QQQ Trust Series 1"
		again := &models.Fund{Symbol: "QQQ", Name: &updated}
		require.NoError(t, testDB.UpsertFund(again))

		assert.Equal(t, firstID, again.ID, "re-ingesting a symbol must reuse the row")

		stored, err := testDB.GetFundBySymbol("QQQ")
		require.NoError(t, err)
		require.NotNil(t, stored.Name)
		assert.Equal(t, updated, *stored.Name)

		funds, err := testDB.ListFunds()
		require.NoError(t, err)
		assert.Len(t, funds, 1)
	})

	t.Run("price history never duplicates a date", func(t *testing.T) {
		testDB.TruncateAll(t)

		fund := &models.Fund{Symbol: "SPY"}
		require.NoError(t, testDB.UpsertFund(fund))

		date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
		point := &models.PricePoint{
			FundID: fund.ID,
			Date:   date,
			Close:  decimal.NewNullDecimal(decimal.NewFromFloat(550.25)),
		}
		require.NoError(t, testDB.InsertPricePoints([]*models.PricePoint{point}))

		// Same date again with a different close: the original row wins.
		dup := &models.PricePoint{
			FundID: fund.ID,
			Date:   date,
			Close:  decimal.NewNullDecimal(decimal.NewFromFloat(999.99)),
		}
		require.NoError(t, testDB.InsertPricePoints([]*models.PricePoint{dup}))

		count, err := testDB.CountPricePoints(fund.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		latest, err := testDB.GetLatestPrice(fund.ID)
		require.NoError(t, err)
		require.True(t, latest.Close.Valid)
		assert.True(t, latest.Close.Decimal.Equal(decimal.NewFromFloat(550.25)))
	})

	t.Run("holdings snapshot replacement", func(t *testing.T) {
		testDB.TruncateAll(t)

		fund := &models.Fund{Symbol: "VTI"}
		require.NoError(t, testDB.UpsertFund(fund))

		asOf := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		first := []*models.Holding{
			{Symbol: "AAPL", AsOfDate: asOf},
			{Symbol: "MSFT", AsOfDate: asOf},
			{Symbol: "NVDA", AsOfDate: asOf},
		}
		require.NoError(t, testDB.ReplaceHoldings(fund.ID, first))

		second := []*models.Holding{
			{Symbol: "AAPL", AsOfDate: asOf.AddDate(0, 1, 0)},
			{Symbol: "GOOG", AsOfDate: asOf.AddDate(0, 1, 0)},
		}
		require.NoError(t, testDB.ReplaceHoldings(fund.ID, second))

		stored, err := testDB.GetHoldings(fund.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2, "old snapshot rows must be gone")

		symbols := []string{stored[0].Symbol, stored[1].Symbol}
		assert.ElementsMatch(t, []string{"AAPL", "GOOG"}, symbols)
	})

	t.Run("snapshot entities keep one live row per fund", func(t *testing.T) {
		testDB.TruncateAll(t)

		fund := &models.Fund{Symbol: "AGG"}
		require.NoError(t, testDB.UpsertFund(fund))

		ratio := 0.03
		require.NoError(t, testDB.ReplaceFundOperations(fund.ID, &models.FundOperations{
			FundID:                   fund.ID,
			AnnualReportExpenseRatio: &ratio,
			AsOfDate:                 time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		}))

		newRatio := 0.04
		require.NoError(t, testDB.ReplaceFundOperations(fund.ID, &models.FundOperations{
			FundID:                   fund.ID,
			AnnualReportExpenseRatio: &newRatio,
			AsOfDate:                 time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		}))

		ops, err := testDB.GetFundOperations(fund.ID)
		require.NoError(t, err)
		require.NotNil(t, ops.AnnualReportExpenseRatio)
		assert.Equal(t, newRatio, *ops.AnnualReportExpenseRatio)

		// A nil record clears the snapshot entirely.
		require.NoError(t, testDB.ReplaceFundOperations(fund.ID, nil))
		_, err = testDB.GetFundOperations(fund.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleting a fund cascades", func(t *testing.T) {
		testDB.TruncateAll(t)

		fund := &models.Fund{Symbol: "VEA"}
		require.NoError(t, testDB.UpsertFund(fund))
		require.NoError(t, testDB.ReplaceHoldings(fund.ID, []*models.Holding{
			{Symbol: "NESN", AsOfDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
		}))

		require.NoError(t, testDB.DeleteFund(fund.ID))

		count, err := testDB.CountHoldings(fund.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
