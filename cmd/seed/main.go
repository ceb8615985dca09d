package main

import (
	"flag"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundboard/etf-service/internal/config"
	"github.com/fundboard/etf-service/internal/database"
	"github.com/fundboard/etf-service/internal/logger"
	"github.com/fundboard/etf-service/internal/models"
)

type seedFund struct {
	symbol   string
	name     string
	family   string
	category string
	base     float64
}

// Demo funds for local development. Prices are synthetic: a deterministic
// wave around each fund's base price, so charts have visible shape without a
// provider round-trip.
var seedFunds = []seedFund{
	{"SPY", "SPDR S&P 500 ETF Trust", "SPDR State Street Global Advisors", "Large Blend", 550},
	{"QQQ", "Invesco QQQ Trust", "Invesco", "Large Growth", 480},
	{"VTI", "Vanguard Total Stock Market Index Fund ETF", "Vanguard", "Large Blend", 280},
}

func main() {
	days := flag.Int("days", 30, "days of synthetic price history to seed")
	migrationsPath := flag.String("migrations", "db/migrations", "path to database migrations")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations(*migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	now := time.Now().UTC()
	for _, sf := range seedFunds {
		name := sf.name
		family := sf.family
		category := sf.category
		price := sf.base

		fund := &models.Fund{
			Symbol:       sf.symbol,
			Name:         &name,
			LongName:     &name,
			Family:       &family,
			Category:     &category,
			CurrentPrice: &price,
		}
		if err := db.UpsertFund(fund); err != nil {
			log.Fatal().Err(err).Str("symbol", sf.symbol).Msg("failed to seed fund")
		}

		points := make([]*models.PricePoint, 0, *days)
		for i := *days; i > 0; i-- {
			day := now.AddDate(0, 0, -i)
			if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				continue
			}
			date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

			closePrice := sf.base * (1 + 0.02*math.Sin(float64(i)/5))
			volume := int64(1_000_000 + 10_000*i)
			points = append(points, &models.PricePoint{
				FundID: fund.ID,
				Date:   date,
				Close:  decimal.NewNullDecimal(decimal.NewFromFloat(closePrice).Round(6)),
				Volume: &volume,
			})
		}
		if err := db.InsertPricePoints(points); err != nil {
			log.Fatal().Err(err).Str("symbol", sf.symbol).Msg("failed to seed prices")
		}

		log.Info().Str("symbol", sf.symbol).Int("prices", len(points)).Msg("seeded fund")
	}

	log.Info().Int("funds", len(seedFunds)).Msg("seeding complete")
}
