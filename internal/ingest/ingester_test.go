package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundboard/etf-service/internal/models"
	"github.com/fundboard/etf-service/internal/provider"
)

// fakeStore records every write the ingester issues.
type fakeStore struct {
	upserted      []*models.Fund
	insertedPrices []*models.PricePoint
	existingDates map[string]bool
	holdings      []*models.Holding
	sectors       []*models.SectorAllocation
	operations    *models.FundOperations
	metrics       *models.EquityMetrics
	overview      *models.FundOverview

	holdingsReplaced   bool
	sectorsReplaced    bool
	operationsReplaced bool
	metricsReplaced    bool
	overviewReplaced   bool

	upsertErr error
}

func (s *fakeStore) UpsertFund(f *models.Fund) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	f.ID = 42
	s.upserted = append(s.upserted, f)
	return nil
}

func (s *fakeStore) PriceDateExists(fundID int64, date time.Time) (bool, error) {
	return s.existingDates[date.Format("2006-01-02")], nil
}

func (s *fakeStore) InsertPricePoints(points []*models.PricePoint) error {
	s.insertedPrices = append(s.insertedPrices, points...)
	return nil
}

func (s *fakeStore) ReplaceHoldings(fundID int64, holdings []*models.Holding) error {
	s.holdingsReplaced = true
	s.holdings = holdings
	return nil
}

func (s *fakeStore) ReplaceSectorAllocations(fundID int64, sectors []*models.SectorAllocation) error {
	s.sectorsReplaced = true
	s.sectors = sectors
	return nil
}

func (s *fakeStore) ReplaceFundOperations(fundID int64, o *models.FundOperations) error {
	s.operationsReplaced = true
	s.operations = o
	return nil
}

func (s *fakeStore) ReplaceEquityMetrics(fundID int64, m *models.EquityMetrics) error {
	s.metricsReplaced = true
	s.metrics = m
	return nil
}

func (s *fakeStore) ReplaceFundOverview(fundID int64, o *models.FundOverview) error {
	s.overviewReplaced = true
	s.overview = o
	return nil
}

// fakeProvider dispatches to configurable functions. Unset functions return
// empty data rather than failing, so each test configures only what it needs.
type fakeProvider struct {
	basicInfo    func(symbol string) (provider.FieldMap, error)
	priceHistory func(symbol, period string) ([]provider.Bar, error)
	fundsData    func(symbol string) (*provider.FundsData, error)

	basicInfoCalls int
	fundsDataCalls int
}

func (p *fakeProvider) BasicInfo(_ context.Context, symbol string) (provider.FieldMap, error) {
	p.basicInfoCalls++
	if p.basicInfo == nil {
		return provider.FieldMap{}, nil
	}
	return p.basicInfo(symbol)
}

func (p *fakeProvider) PriceHistory(_ context.Context, symbol, period string) ([]provider.Bar, error) {
	if p.priceHistory == nil {
		return nil, nil
	}
	return p.priceHistory(symbol, period)
}

func (p *fakeProvider) FundsData(_ context.Context, symbol string) (*provider.FundsData, error) {
	p.fundsDataCalls++
	if p.fundsData == nil {
		return &provider.FundsData{}, nil
	}
	return p.fundsData(symbol)
}

type fakeEvents struct {
	ingested []string
	failed   []string
}

func (e *fakeEvents) PublishFundIngested(_ context.Context, fund *models.Fund) error {
	e.ingested = append(e.ingested, fund.Symbol)
	return nil
}

func (e *fakeEvents) PublishFundIngestFailed(_ context.Context, symbol, _ string) error {
	e.failed = append(e.failed, symbol)
	return nil
}

func newTestIngester(store *fakeStore, prov *fakeProvider, events EventPublisher) (*Ingester, *[]time.Duration) {
	ing := New(store, prov, events, "5y", zerolog.Nop())
	ing.symbolDelay = 0

	sleeps := &[]time.Duration{}
	ing.sleep = func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return ing, sleeps
}

func floatPtr(v float64) *float64 { return &v }

func TestIngestFund_MapsBasicInfoAndUpserts(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		basicInfo: func(string) (provider.FieldMap, error) {
			return provider.FieldMap{
				"longName":           "Invesco QQQ Trust",
				"fundFamily":         "Invesco",
				"country":            "United States",
				"regularMarketPrice": 480.5,
				"postMarketPrice":    481.2,
				"marketCap":          250_000_000_000.0,
			}, nil
		},
	}
	ing, _ := newTestIngester(store, prov, nil)

	fund, err := ing.IngestFund(context.Background(), "QQQ", false)
	require.NoError(t, err)
	require.Len(t, store.upserted, 1)

	assert.Equal(t, "QQQ", fund.Symbol)
	assert.Equal(t, int64(42), fund.ID)
	require.NotNil(t, fund.Name)
	assert.Equal(t, "Invesco QQQ Trust", *fund.Name)
	require.NotNil(t, fund.Family)
	assert.Equal(t, "Invesco", *fund.Family)
	require.NotNil(t, fund.Country)
	assert.Equal(t, "United States", *fund.Country)
	require.NotNil(t, fund.CurrentPrice)
	assert.Equal(t, 480.5, *fund.CurrentPrice)
	require.NotNil(t, fund.PostMarketPrice)
	assert.Equal(t, 481.2, *fund.PostMarketPrice)
	require.NotNil(t, fund.MarketCap)
	assert.Equal(t, int64(250_000_000_000), *fund.MarketCap)
	require.NotNil(t, fund.LastDataUpdate)
}

func TestIngestFund_NameFallsBackToSymbol(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		basicInfo: func(string) (provider.FieldMap, error) {
			return provider.FieldMap{}, nil
		},
	}
	ing, _ := newTestIngester(store, prov, nil)

	fund, err := ing.IngestFund(context.Background(), "VOO", false)
	require.NoError(t, err)
	require.NotNil(t, fund.Name)
	assert.Equal(t, "VOO", *fund.Name)
}

func TestIngestFund_BasicInfoFailureShortCircuits(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		basicInfo: func(string) (provider.FieldMap, error) {
			return nil, fmt.Errorf("symbol UNKNOWN: %w", provider.ErrNoData)
		},
	}
	ing, _ := newTestIngester(store, prov, nil)

	_, err := ing.IngestFund(context.Background(), "UNKNOWN", true)
	require.Error(t, err)

	assert.Empty(t, store.upserted, "nothing should be persisted")
	assert.Zero(t, prov.fundsDataCalls, "composition fetches must not run")
}

func TestIngestFund_RetriesOnRateLimitWithDoublingDelay(t *testing.T) {
	store := &fakeStore{}
	attempts := 0
	prov := &fakeProvider{
		basicInfo: func(string) (provider.FieldMap, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("429 Too Many Requests")
			}
			return provider.FieldMap{"longName": "SPDR S&P 500 ETF Trust"}, nil
		},
	}
	ing, sleeps := newTestIngester(store, prov, nil)

	_, err := ing.IngestFund(context.Background(), "SPY", false)
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, *sleeps)
}

func TestIngestFund_GivesUpAfterThreeRateLimitedAttempts(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		basicInfo: func(string) (provider.FieldMap, error) {
			return nil, errors.New("429 Too Many Requests")
		},
	}
	ing, sleeps := newTestIngester(store, prov, nil)

	_, err := ing.IngestFund(context.Background(), "SPY", false)
	require.Error(t, err)

	assert.Equal(t, 3, prov.basicInfoCalls)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, *sleeps)
	assert.Empty(t, store.upserted)
}

func TestIngestFund_NonRateLimitErrorDoesNotRetry(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		basicInfo: func(string) (provider.FieldMap, error) {
			return nil, errors.New("connection refused")
		},
	}
	ing, sleeps := newTestIngester(store, prov, nil)

	_, err := ing.IngestFund(context.Background(), "SPY", false)
	require.Error(t, err)

	assert.Equal(t, 1, prov.basicInfoCalls)
	assert.Empty(t, *sleeps)
}

func TestIngestFund_CompositionFailureDoesNotFailSymbol(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		fundsData: func(string) (*provider.FundsData, error) {
			return nil, errors.New("upstream timeout")
		},
	}
	ing, _ := newTestIngester(store, prov, nil)

	fund, err := ing.IngestFund(context.Background(), "QQQ", false)
	require.NoError(t, err, "composition faults stay contained")
	require.NotNil(t, fund)
	require.Len(t, store.upserted, 1)
	assert.False(t, store.holdingsReplaced, "a fetch failure must not touch the snapshot")
	assert.False(t, store.sectorsReplaced)
	assert.False(t, store.operationsReplaced)
	assert.False(t, store.metricsReplaced)
	assert.False(t, store.overviewReplaced)
}

func TestIngestFund_EmptyCompositionClearsSnapshots(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{} // provider reports no composition data at all
	ing, _ := newTestIngester(store, prov, nil)

	_, err := ing.IngestFund(context.Background(), "AGG", false)
	require.NoError(t, err)

	assert.True(t, store.holdingsReplaced, "an empty response still replaces the snapshot")
	assert.Empty(t, store.holdings)
	assert.True(t, store.sectorsReplaced)
	assert.Empty(t, store.sectors)
	assert.True(t, store.operationsReplaced)
	assert.Nil(t, store.operations)
	assert.True(t, store.metricsReplaced)
	assert.Nil(t, store.metrics)
	assert.True(t, store.overviewReplaced)
	assert.Nil(t, store.overview)
}

func TestIngestFund_PriceHistorySkipsExistingDatesAndKeepsCloselessBars(t *testing.T) {
	day1 := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	day3 := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	store := &fakeStore{
		existingDates: map[string]bool{"2026-08-27": true},
	}
	volume := int64(1_000_000)
	nan := math.NaN()
	prov := &fakeProvider{
		priceHistory: func(string, string) ([]provider.Bar, error) {
			return []provider.Bar{
				{Date: day1, Close: floatPtr(548.0)},                  // already persisted
				{Date: day2, Open: floatPtr(549.0), Close: &nan},      // no usable close
				{Date: day3, Close: floatPtr(552.1), Volume: &volume}, // new
			}, nil
		},
	}
	ing, _ := newTestIngester(store, prov, nil)

	_, err := ing.IngestFund(context.Background(), "SPY", true)
	require.NoError(t, err)

	require.Len(t, store.insertedPrices, 2)

	closeless := store.insertedPrices[0]
	assert.Equal(t, day2, closeless.Date)
	assert.False(t, closeless.Close.Valid, "a bar without a close is kept with a null close")
	require.True(t, closeless.Open.Valid)
	assert.Equal(t, "549", closeless.Open.Decimal.String())

	point := store.insertedPrices[1]
	assert.Equal(t, day3, point.Date)
	require.True(t, point.Close.Valid)
	assert.Equal(t, "552.1", point.Close.Decimal.String())
	assert.False(t, point.Open.Valid)
	require.NotNil(t, point.Volume)
	assert.Equal(t, volume, *point.Volume)
}

func TestIngestFund_HoldingsKeepReportedFractions(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		fundsData: func(string) (*provider.FundsData, error) {
			return &provider.FundsData{
				TopHoldings: []provider.TopHolding{
					{Symbol: "AAPL", Name: "Apple Inc", Weight: floatPtr(0.071)},
					{Symbol: "MSFT", Name: "Microsoft Corp"},
				},
			}, nil
		},
	}
	ing, _ := newTestIngester(store, prov, nil)

	_, err := ing.IngestFund(context.Background(), "QQQ", false)
	require.NoError(t, err)

	require.Len(t, store.holdings, 2)
	require.NotNil(t, store.holdings[0].Weight)
	assert.InDelta(t, 0.071, *store.holdings[0].Weight, 1e-9)
	assert.Nil(t, store.holdings[1].Weight)
	require.NotNil(t, store.holdings[0].Name)
	assert.Equal(t, "Apple Inc", *store.holdings[0].Name)
}

func TestIngestFund_SectorNamesAreNormalized(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		fundsData: func(string) (*provider.FundsData, error) {
			return &provider.FundsData{
				SectorWeightings: map[string]float64{
					"real_estate":        0.025,
					"consumer_defensive": 0.06,
					"utilities":          0,
				},
			}, nil
		},
	}
	ing, _ := newTestIngester(store, prov, nil)

	_, err := ing.IngestFund(context.Background(), "SPY", false)
	require.NoError(t, err)

	require.Len(t, store.sectors, 2, "zero weights are dropped")
	byName := map[string]float64{}
	for _, s := range store.sectors {
		byName[s.SectorName] = s.AllocationPercentage
	}
	assert.InDelta(t, 2.5, byName["Real Estate"], 1e-9)
	assert.InDelta(t, 6.0, byName["Consumer Defensive"], 1e-9)
}

func TestIngestSymbols_CountsAndEvents(t *testing.T) {
	store := &fakeStore{}
	prov := &fakeProvider{
		basicInfo: func(symbol string) (provider.FieldMap, error) {
			if symbol == "BAD" {
				return nil, errors.New("no such symbol")
			}
			return provider.FieldMap{}, nil
		},
	}
	events := &fakeEvents{}
	ing, _ := newTestIngester(store, prov, events)

	succeeded, failed := ing.IngestSymbols(context.Background(),
		[]string{"spy", "not a symbol", "BAD", "QQQ"}, false)

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 2, failed)
	assert.Equal(t, []string{"SPY", "QQQ"}, events.ingested)
	assert.Equal(t, []string{"BAD"}, events.failed)
}
