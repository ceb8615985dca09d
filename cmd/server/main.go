package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fundboard/etf-service/internal/api"
	"github.com/fundboard/etf-service/internal/cache"
	"github.com/fundboard/etf-service/internal/config"
	"github.com/fundboard/etf-service/internal/database"
	"github.com/fundboard/etf-service/internal/ingest"
	"github.com/fundboard/etf-service/internal/kafka"
	"github.com/fundboard/etf-service/internal/logger"
	"github.com/fundboard/etf-service/internal/provider"
	"github.com/fundboard/etf-service/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations("db/migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	var events ingest.EventPublisher
	var addedEvents service.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
		addedEvents = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).
			Msg("kafka event publishing enabled")
	}

	var priceCache service.PriceCache
	if cfg.Redis.Enabled {
		c, err := cache.New(cfg.Redis.Addr, cfg.Redis.DB, log)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, price cache disabled")
		} else {
			defer c.Close()
			priceCache = c
			log.Info().Str("addr", cfg.Redis.Addr).Msg("price cache enabled")
		}
	}

	prov := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.RateLimit, log)
	ingester := ingest.New(db, prov, events, cfg.Provider.HistoryPeriod, log)
	funds := service.NewFundService(db, ingester, priceCache, addedEvents, log)

	router := api.NewRouter(api.NewHandler(funds, log))
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
}
