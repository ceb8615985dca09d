package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fundboard/etf-service/internal/config"
	"github.com/fundboard/etf-service/internal/database"
	"github.com/fundboard/etf-service/internal/ingest"
	"github.com/fundboard/etf-service/internal/kafka"
	"github.com/fundboard/etf-service/internal/logger"
	"github.com/fundboard/etf-service/internal/provider"
)

func main() {
	var (
		symbolList     = flag.String("symbols", "", "comma-separated symbols to ingest (default: the popular fund set)")
		includeHistory = flag.Bool("history", true, "also ingest daily price history")
		migrationsPath = flag.String("migrations", "db/migrations", "path to database migrations")
	)
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

	var events ingest.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
	}

	prov := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.RateLimit, log)
	ingester := ingest.New(db, prov, events, cfg.Provider.HistoryPeriod, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	symbols := ingest.PopularSymbols
	if *symbolList != "" {
		symbols = strings.Split(*symbolList, ",")
	}

	log.Info().Int("count", len(symbols)).Bool("history", *includeHistory).
		Msg("starting batch ingestion")
	succeeded, failed := ingester.IngestSymbols(ctx, symbols, *includeHistory)
	log.Info().Int("succeeded", succeeded).Int("failed", failed).
		Msg("batch ingestion finished")

	if failed > 0 {
		os.Exit(1)
	}
}
