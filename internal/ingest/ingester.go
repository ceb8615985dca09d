package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundboard/etf-service/internal/models"
	"github.com/fundboard/etf-service/internal/provider"
)

// PopularSymbols is the default ingestion set for the bulk seeding run.
var PopularSymbols = []string{
	"SPY", "QQQ", "VOO", "VTI", "IVV", "IEMG", "VEA", "AGG", "VWO", "EFA",
}

// Store is the persistence surface the ingester writes through.
type Store interface {
	UpsertFund(f *models.Fund) error
	PriceDateExists(fundID int64, date time.Time) (bool, error)
	InsertPricePoints(points []*models.PricePoint) error
	ReplaceHoldings(fundID int64, holdings []*models.Holding) error
	ReplaceSectorAllocations(fundID int64, sectors []*models.SectorAllocation) error
	ReplaceFundOperations(fundID int64, o *models.FundOperations) error
	ReplaceEquityMetrics(fundID int64, m *models.EquityMetrics) error
	ReplaceFundOverview(fundID int64, o *models.FundOverview) error
}

// Provider is the upstream data source for fund information.
type Provider interface {
	BasicInfo(ctx context.Context, symbol string) (provider.FieldMap, error)
	PriceHistory(ctx context.Context, symbol, period string) ([]provider.Bar, error)
	FundsData(ctx context.Context, symbol string) (*provider.FundsData, error)
}

// EventPublisher receives ingestion outcome events. A nil publisher disables
// event publishing.
type EventPublisher interface {
	PublishFundIngested(ctx context.Context, fund *models.Fund) error
	PublishFundIngestFailed(ctx context.Context, symbol, message string) error
}

// Ingester orchestrates the full ingestion pipeline for fund symbols: basic
// info, price history, and the composition snapshots. Each composition step
// is an independent fault boundary; only a basic-info failure fails the
// symbol as a whole.
type Ingester struct {
	store    Store
	provider Provider
	events   EventPublisher
	log      zerolog.Logger

	historyPeriod string
	retryDelay    time.Duration
	symbolDelay   time.Duration
	sleep         func(ctx context.Context, d time.Duration) error
}

// New creates an Ingester. historyPeriod is the provider lookback range for
// price history, e.g. "5y". events may be nil.
func New(store Store, prov Provider, events EventPublisher, historyPeriod string, logger zerolog.Logger) *Ingester {
	return &Ingester{
		store:         store,
		provider:      prov,
		events:        events,
		log:           logger.With().Str("component", "ingest").Logger(),
		historyPeriod: historyPeriod,
		retryDelay:    initialRetryDelay,
		symbolDelay:   time.Second,
		sleep:         sleepContext,
	}
}

// IngestFund runs the full pipeline for one already-validated symbol and
// returns the persisted fund. A basic-info failure aborts and returns an
// error; failures in price history or any composition snapshot are logged and
// the rest of the pipeline continues.
func (ing *Ingester) IngestFund(ctx context.Context, symbol string, includeHistory bool) (*models.Fund, error) {
	log := ing.log.With().Str("symbol", symbol).Logger()
	log.Info().Bool("include_history", includeHistory).Msg("starting fund ingestion")

	fund, err := ing.ingestBasicInfo(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", symbol, err)
	}

	if includeHistory {
		if err := ing.ingestPriceHistory(ctx, fund); err != nil {
			log.Error().Err(err).Msg("price history ingestion failed")
		}
	}

	if err := ing.ingestHoldings(ctx, fund); err != nil {
		log.Error().Err(err).Msg("holdings ingestion failed")
	}
	if err := ing.ingestSectorAllocations(ctx, fund); err != nil {
		log.Error().Err(err).Msg("sector allocation ingestion failed")
	}
	if err := ing.ingestFundOperations(ctx, fund); err != nil {
		log.Error().Err(err).Msg("fund operations ingestion failed")
	}
	if err := ing.ingestEquityMetrics(ctx, fund); err != nil {
		log.Error().Err(err).Msg("equity metrics ingestion failed")
	}
	if err := ing.ingestFundOverview(ctx, fund); err != nil {
		log.Error().Err(err).Msg("fund overview ingestion failed")
	}

	log.Info().Int64("fund_id", fund.ID).Msg("fund ingestion complete")
	return fund, nil
}

// IngestSymbols ingests a batch of symbols sequentially, pausing between
// symbols to stay under the provider's rate limit. It returns how many
// symbols succeeded and how many failed; invalid symbols count as failures.
func (ing *Ingester) IngestSymbols(ctx context.Context, symbols []string, includeHistory bool) (succeeded, failed int) {
	for i, raw := range symbols {
		if i > 0 && ing.symbolDelay > 0 {
			if err := ing.sleep(ctx, ing.symbolDelay); err != nil {
				ing.log.Warn().Err(err).Msg("batch ingestion interrupted")
				failed += len(symbols) - i
				return succeeded, failed
			}
		}

		symbol, err := ValidateSymbol(raw)
		if err != nil {
			ing.log.Error().Err(err).Str("symbol", raw).Msg("skipping invalid symbol")
			failed++
			continue
		}

		fund, err := ing.IngestFund(ctx, symbol, includeHistory)
		if err != nil {
			ing.log.Error().Err(err).Str("symbol", symbol).Msg("symbol ingestion failed")
			ing.publishFailure(ctx, symbol, err)
			failed++
			continue
		}

		ing.publishSuccess(ctx, fund)
		succeeded++
	}
	return succeeded, failed
}

// IngestPopularFunds ingests the default symbol set.
func (ing *Ingester) IngestPopularFunds(ctx context.Context, includeHistory bool) (succeeded, failed int) {
	return ing.IngestSymbols(ctx, PopularSymbols, includeHistory)
}

func (ing *Ingester) publishSuccess(ctx context.Context, fund *models.Fund) {
	if ing.events == nil {
		return
	}
	if err := ing.events.PublishFundIngested(ctx, fund); err != nil {
		ing.log.Warn().Err(err).Str("symbol", fund.Symbol).Msg("failed to publish ingestion event")
	}
}

func (ing *Ingester) publishFailure(ctx context.Context, symbol string, cause error) {
	if ing.events == nil {
		return
	}
	if err := ing.events.PublishFundIngestFailed(ctx, symbol, cause.Error()); err != nil {
		ing.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to publish failure event")
	}
}

// ingestBasicInfo fetches the identity and pricing fields and upserts the
// fund row. This is the only step whose failure fails the whole symbol.
func (ing *Ingester) ingestBasicInfo(ctx context.Context, symbol string) (*models.Fund, error) {
	fields, err := ing.fetchBasicInfoWithRetry(ctx, symbol)
	if err != nil {
		return nil, err
	}

	fund := mapFund(symbol, fields)
	if err := ing.store.UpsertFund(fund); err != nil {
		return nil, fmt.Errorf("failed to upsert fund %s: %w", symbol, err)
	}

	ing.log.Debug().Str("symbol", symbol).Int64("fund_id", fund.ID).Msg("fund row upserted")
	return fund, nil
}

// mapFund converts the provider field set into a Fund. Missing or malformed
// fields stay nil; the fund name falls back to the symbol itself.
func mapFund(symbol string, fields provider.FieldMap) *models.Fund {
	f := func(field string) *float64 { return OptionalFloat(fields.Float(field)) }
	name := fields.StrOr("longName", symbol)
	now := time.Now().UTC()

	return &models.Fund{
		Symbol: symbol,

		Name:             &name,
		LongName:         fields.Str("longName"),
		ShortName:        fields.Str("shortName"),
		Category:         fields.Str("category"),
		Family:           fields.Str("fundFamily"),
		Exchange:         fields.Str("exchange"),
		FullExchangeName: fields.Str("fullExchangeName"),
		Currency:         fields.Str("currency"),
		Region:           fields.Str("region"),
		Country:          fields.Str("country"),
		LegalType:        fields.Str("legalType"),
		Website:          fields.Str("website"),
		Summary:          fields.Str("longBusinessSummary"),

		NetAssets:       f("totalAssets"),
		NAV:             f("navPrice"),
		ExpenseRatio:    f("annualReportExpenseRatio"),
		NetExpenseRatio: f("netExpenseRatio"),
		YieldRate:       f("yield"),
		PERatio:         f("trailingPE"),
		PBRatio:         f("priceToBook"),
		Beta:            f("beta3Year"),
		BookValue:       f("bookValue"),
		DividendYield:   f("dividendYield"),
		EPSTrailing:     f("trailingEps"),
		TrailingPEG:     f("trailingPegRatio"),

		YTDReturn:       f("ytdReturn"),
		ThreeYearReturn: f("threeYearAverageReturn"),
		FiveYearReturn:  f("fiveYearAverageReturn"),

		CurrentPrice:               f("regularMarketPrice"),
		PreviousClose:              f("regularMarketPreviousClose"),
		OpenPrice:                  f("regularMarketOpen"),
		DayHigh:                    f("regularMarketDayHigh"),
		DayLow:                     f("regularMarketDayLow"),
		RegularMarketChange:        f("regularMarketChange"),
		RegularMarketChangePercent: f("regularMarketChangePercent"),
		PostMarketPrice:            f("postMarketPrice"),
		PostMarketChange:           f("postMarketChange"),
		PostMarketChangePercent:    f("postMarketChangePercent"),
		Bid:                        f("bid"),
		Ask:                        f("ask"),
		BidSize:                    fields.Int("bidSize"),
		AskSize:                    fields.Int("askSize"),

		Volume:              fields.Int("regularMarketVolume"),
		AverageVolume:       fields.Int("averageVolume"),
		AverageVolume10Days: fields.Int("averageDailyVolume10Day"),
		SharesOutstanding:   fields.Int("sharesOutstanding"),
		MarketCap:           fields.Int("marketCap"),

		FiftyTwoWeekLow:           f("fiftyTwoWeekLow"),
		FiftyTwoWeekHigh:          f("fiftyTwoWeekHigh"),
		FiftyTwoWeekChangePercent: f("fiftyTwoWeekChangePercent"),
		FiftyTwoWeekRange:         fields.Str("fiftyTwoWeekRange"),

		FiftyDayAverage:                   f("fiftyDayAverage"),
		TwoHundredDayAverage:              f("twoHundredDayAverage"),
		FiftyDayAverageChange:             f("fiftyDayAverageChange"),
		FiftyDayAverageChangePercent:      f("fiftyDayAverageChangePercent"),
		TwoHundredDayAverageChange:        f("twoHundredDayAverageChange"),
		TwoHundredDayAverageChangePercent: f("twoHundredDayAverageChangePercent"),

		TrailingAnnualDividendRate:  f("trailingAnnualDividendRate"),
		TrailingAnnualDividendYield: f("trailingAnnualDividendYield"),

		QuoteType:         fields.Str("quoteType"),
		Market:            fields.Str("market"),
		MarketState:       fields.Str("marketState"),
		FinancialCurrency: fields.Str("financialCurrency"),

		LastDataUpdate: &now,
	}
}

// ingestPriceHistory appends daily bars the database does not have yet. Dates
// already persisted are never touched; a bar whose close is missing is kept
// with a null close rather than dropped.
func (ing *Ingester) ingestPriceHistory(ctx context.Context, fund *models.Fund) error {
	bars, err := ing.provider.PriceHistory(ctx, fund.Symbol, ing.historyPeriod)
	if err != nil {
		return fmt.Errorf("failed to fetch price history for %s: %w", fund.Symbol, err)
	}

	points := make([]*models.PricePoint, 0, len(bars))
	skipped := 0
	for _, bar := range bars {
		exists, err := ing.store.PriceDateExists(fund.ID, bar.Date)
		if err != nil {
			return fmt.Errorf("failed to check price date for %s: %w", fund.Symbol, err)
		}
		if exists {
			skipped++
			continue
		}

		points = append(points, &models.PricePoint{
			FundID:        fund.ID,
			Date:          bar.Date,
			Open:          nullDecimal(bar.Open),
			High:          nullDecimal(bar.High),
			Low:           nullDecimal(bar.Low),
			Close:         nullDecimal(bar.Close),
			AdjustedClose: nullDecimal(bar.AdjustedClose),
			Volume:        bar.Volume,
		})
	}

	if err := ing.store.InsertPricePoints(points); err != nil {
		return fmt.Errorf("failed to insert price points for %s: %w", fund.Symbol, err)
	}

	ing.log.Info().Str("symbol", fund.Symbol).
		Int("inserted", len(points)).Int("skipped", skipped).
		Msg("price history ingested")
	return nil
}

// ingestHoldings replaces the holdings snapshot with whatever the provider
// reports. An empty response clears the snapshot; weights are stored as the
// reported fractions.
func (ing *Ingester) ingestHoldings(ctx context.Context, fund *models.Fund) error {
	data, err := ing.provider.FundsData(ctx, fund.Symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch holdings for %s: %w", fund.Symbol, err)
	}

	asOf := today()
	holdings := make([]*models.Holding, 0, len(data.TopHoldings))
	for _, h := range data.TopHoldings {
		holding := &models.Holding{
			FundID:   fund.ID,
			Symbol:   h.Symbol,
			AsOfDate: asOf,
		}
		if h.Name != "" {
			name := h.Name
			holding.Name = &name
		}
		holding.Weight = OptionalFloat(h.Weight)
		holdings = append(holdings, holding)
	}

	if err := ing.store.ReplaceHoldings(fund.ID, holdings); err != nil {
		return fmt.Errorf("failed to replace holdings for %s: %w", fund.Symbol, err)
	}

	ing.log.Info().Str("symbol", fund.Symbol).Int("count", len(holdings)).
		Msg("holdings snapshot replaced")
	return nil
}

// ingestSectorAllocations replaces the sector snapshot. Sector keys arrive in
// the provider's snake_case form and are normalized to display names; zero
// and negative weights are dropped. An empty response clears the snapshot.
func (ing *Ingester) ingestSectorAllocations(ctx context.Context, fund *models.Fund) error {
	data, err := ing.provider.FundsData(ctx, fund.Symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch sector weightings for %s: %w", fund.Symbol, err)
	}

	asOf := today()
	sectors := make([]*models.SectorAllocation, 0, len(data.SectorWeightings))
	for name, weight := range data.SectorWeightings {
		percent := weight * 100
		if percent <= 0 {
			continue
		}
		sectors = append(sectors, &models.SectorAllocation{
			FundID:               fund.ID,
			SectorName:           sectorDisplayName(name),
			AllocationPercentage: percent,
			AsOfDate:             asOf,
		})
	}

	if err := ing.store.ReplaceSectorAllocations(fund.ID, sectors); err != nil {
		return fmt.Errorf("failed to replace sector allocations for %s: %w", fund.Symbol, err)
	}

	ing.log.Info().Str("symbol", fund.Symbol).Int("count", len(sectors)).
		Msg("sector allocation snapshot replaced")
	return nil
}

func (ing *Ingester) ingestFundOperations(ctx context.Context, fund *models.Fund) error {
	data, err := ing.provider.FundsData(ctx, fund.Symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch fund operations for %s: %w", fund.Symbol, err)
	}
	var record *models.FundOperations
	if ops := data.FundOperations; ops != nil {
		record = &models.FundOperations{
			FundID:                      fund.ID,
			AnnualReportExpenseRatio:    OptionalFloat(ops.ExpenseRatio),
			AnnualHoldingsTurnover:      OptionalFloat(ops.HoldingsTurnover),
			TotalNetAssets:              OptionalFloat(ops.TotalNetAssets),
			CategoryAverageExpenseRatio: OptionalFloat(ops.CategoryExpenseRatio),
			CategoryAverageTurnover:     OptionalFloat(ops.CategoryTurnover),
			AsOfDate:                    today(),
		}
	}
	if err := ing.store.ReplaceFundOperations(fund.ID, record); err != nil {
		return fmt.Errorf("failed to replace fund operations for %s: %w", fund.Symbol, err)
	}

	ing.log.Info().Str("symbol", fund.Symbol).Msg("fund operations snapshot replaced")
	return nil
}

func (ing *Ingester) ingestEquityMetrics(ctx context.Context, fund *models.Fund) error {
	data, err := ing.provider.FundsData(ctx, fund.Symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch equity metrics for %s: %w", fund.Symbol, err)
	}
	var record *models.EquityMetrics
	if eq := data.EquityHoldings; eq != nil {
		record = &models.EquityMetrics{
			FundID:                 fund.ID,
			PriceEarnings:          OptionalFloat(eq.PriceEarnings),
			PriceBook:              OptionalFloat(eq.PriceBook),
			PriceSales:             OptionalFloat(eq.PriceSales),
			PriceCashflow:          OptionalFloat(eq.PriceCashflow),
			MedianMarketCap:        OptionalFloat(eq.MedianMarketCap),
			GeometricMeanMarketCap: OptionalFloat(eq.GeometricMeanMarketCap),
			CategoryPriceEarnings:  OptionalFloat(eq.CategoryPriceEarnings),
			CategoryPriceBook:      OptionalFloat(eq.CategoryPriceBook),
			CategoryPriceSales:     OptionalFloat(eq.CategoryPriceSales),
			AsOfDate:               today(),
		}
	}
	if err := ing.store.ReplaceEquityMetrics(fund.ID, record); err != nil {
		return fmt.Errorf("failed to replace equity metrics for %s: %w", fund.Symbol, err)
	}

	ing.log.Info().Str("symbol", fund.Symbol).Msg("equity metrics snapshot replaced")
	return nil
}

func (ing *Ingester) ingestFundOverview(ctx context.Context, fund *models.Fund) error {
	data, err := ing.provider.FundsData(ctx, fund.Symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch fund overview for %s: %w", fund.Symbol, err)
	}
	var record *models.FundOverview
	if data.FundOverview != nil || data.Description != "" {
		record = &models.FundOverview{FundID: fund.ID}
		if ov := data.FundOverview; ov != nil {
			record.CategoryName = ov.Str("categoryName")
			record.Family = ov.Str("family")
			record.LegalType = ov.Str("legalType")
		}
		if data.Description != "" {
			description := data.Description
			record.Description = &description
		}
	}

	if err := ing.store.ReplaceFundOverview(fund.ID, record); err != nil {
		return fmt.Errorf("failed to replace fund overview for %s: %w", fund.Symbol, err)
	}

	ing.log.Info().Str("symbol", fund.Symbol).Msg("fund overview snapshot replaced")
	return nil
}

// sectorDisplayName turns a provider sector key like "real_estate" into
// "Real Estate".
func sectorDisplayName(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
