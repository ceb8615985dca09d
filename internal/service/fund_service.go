package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundboard/etf-service/internal/database"
	"github.com/fundboard/etf-service/internal/ingest"
	"github.com/fundboard/etf-service/internal/models"
)

// ErrIngestionFailed reports that the data provider could not supply usable
// data for a new symbol.
var ErrIngestionFailed = errors.New("fund ingestion failed")

// ErrFundNotRetrievable reports that ingestion succeeded but the fund could
// not be read back afterwards.
var ErrFundNotRetrievable = errors.New("fund not retrievable after ingestion")

// AlreadyExistsError reports an insert for a symbol that is already tracked.
// It carries the existing fund so callers can return it alongside the
// conflict.
type AlreadyExistsError struct {
	Fund *models.Fund
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("fund %s already exists", e.Fund.Symbol)
}

// Repository is the read/lookup surface the service needs from storage.
type Repository interface {
	GetFundBySymbol(symbol string) (*models.Fund, error)
	GetFundByID(id int64) (*models.Fund, error)
	ListFunds() ([]*models.Fund, error)
	FundExists(symbol string) (bool, error)
	GetHoldings(fundID int64) ([]*models.Holding, error)
	GetSectorAllocations(fundID int64) ([]*models.SectorAllocation, error)
	GetPriceHistory(fundID int64, start, end *time.Time) ([]*models.PricePoint, error)
	GetLatestPrice(fundID int64) (*models.PricePoint, error)
	GetFundOperations(fundID int64) (*models.FundOperations, error)
	GetEquityMetrics(fundID int64) (*models.EquityMetrics, error)
	GetFundOverview(fundID int64) (*models.FundOverview, error)
}

// Ingester runs the ingestion pipeline for one symbol.
type Ingester interface {
	IngestFund(ctx context.Context, symbol string, includeHistory bool) (*models.Fund, error)
}

// PriceCache is an optional read-through cache for latest prices.
type PriceCache interface {
	GetLatestPrice(ctx context.Context, fundID int64) (*models.PricePoint, bool)
	SetLatestPrice(ctx context.Context, fundID int64, point *models.PricePoint)
	InvalidateLatestPrice(ctx context.Context, fundID int64)
}

// EventPublisher receives a notification when a new fund is added. A nil
// publisher disables notifications.
type EventPublisher interface {
	PublishFundAdded(ctx context.Context, fund *models.Fund) error
}

// FundService is the application layer between the HTTP handlers and the
// storage/ingestion machinery.
type FundService struct {
	repo     Repository
	ingester Ingester
	cache    PriceCache     // may be nil
	events   EventPublisher // may be nil
	log      zerolog.Logger
}

// NewFundService creates a FundService. cache and events may be nil.
func NewFundService(repo Repository, ingester Ingester, cache PriceCache, events EventPublisher, logger zerolog.Logger) *FundService {
	return &FundService{
		repo:     repo,
		ingester: ingester,
		cache:    cache,
		events:   events,
		log:      logger.With().Str("component", "fund_service").Logger(),
	}
}

// InsertFund validates a symbol, runs the ingestion pipeline for it, and
// returns the freshly persisted fund detail. A symbol that is already tracked
// returns AlreadyExistsError without touching the provider.
func (s *FundService) InsertFund(ctx context.Context, rawSymbol string, includeHistory bool) (*models.FundDetail, error) {
	symbol, err := ingest.ValidateSymbol(rawSymbol)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.FundExists(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to check fund existence: %w", err)
	}
	if exists {
		fund, err := s.repo.GetFundBySymbol(symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing fund %s: %w", symbol, err)
		}
		return nil, &AlreadyExistsError{Fund: fund}
	}

	fund, err := s.ingester.IngestFund(ctx, symbol, includeHistory)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("ingestion failed for new fund")
		return nil, fmt.Errorf("%w: %s", ErrIngestionFailed, err)
	}
	if s.cache != nil {
		s.cache.InvalidateLatestPrice(ctx, fund.ID)
	}
	if s.events != nil {
		if err := s.events.PublishFundAdded(ctx, fund); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to publish fund added event")
		}
	}

	detail, err := s.GetFundDetail(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrFundNotRetrievable, symbol, err)
	}
	return detail, nil
}

// GetFundDetail returns a fund with its snapshot entities attached. The
// argument may be a ticker symbol or a numeric fund id. Missing snapshots are
// left nil, not treated as errors.
func (s *FundService) GetFundDetail(symbolOrID string) (*models.FundDetail, error) {
	fund, err := s.resolveFund(symbolOrID)
	if err != nil {
		return nil, err
	}

	detail := &models.FundDetail{Fund: *fund}

	if overview, err := s.repo.GetFundOverview(fund.ID); err == nil {
		detail.Overview = overview
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to load fund overview: %w", err)
	}

	if ops, err := s.repo.GetFundOperations(fund.ID); err == nil {
		detail.Operations = ops
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to load fund operations: %w", err)
	}

	if metrics, err := s.repo.GetEquityMetrics(fund.ID); err == nil {
		detail.EquityMetrics = metrics
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to load equity metrics: %w", err)
	}

	return detail, nil
}

// ListFunds returns every tracked fund ordered by symbol.
func (s *FundService) ListFunds() ([]*models.Fund, error) {
	return s.repo.ListFunds()
}

// GetHoldings returns the current holdings snapshot for a fund.
func (s *FundService) GetHoldings(symbolOrID string) ([]*models.Holding, error) {
	fund, err := s.resolveFund(symbolOrID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetHoldings(fund.ID)
}

// GetSectorAllocations returns the current sector snapshot for a fund.
func (s *FundService) GetSectorAllocations(symbolOrID string) ([]*models.SectorAllocation, error) {
	fund, err := s.resolveFund(symbolOrID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetSectorAllocations(fund.ID)
}

// GetPriceHistory returns daily prices for a fund, optionally bounded by an
// inclusive start and end date.
func (s *FundService) GetPriceHistory(symbolOrID string, start, end *time.Time) ([]*models.PricePoint, error) {
	fund, err := s.resolveFund(symbolOrID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetPriceHistory(fund.ID, start, end)
}

// GetLatestPrice returns the most recent price point for a fund, consulting
// the cache first when one is configured.
func (s *FundService) GetLatestPrice(ctx context.Context, symbolOrID string) (*models.PricePoint, error) {
	fund, err := s.resolveFund(symbolOrID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if point, ok := s.cache.GetLatestPrice(ctx, fund.ID); ok {
			return point, nil
		}
	}

	point, err := s.repo.GetLatestPrice(fund.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetLatestPrice(ctx, fund.ID, point)
	}
	return point, nil
}

// resolveFund looks a fund up by numeric id when the argument is all digits,
// otherwise by validated symbol.
func (s *FundService) resolveFund(symbolOrID string) (*models.Fund, error) {
	if id, err := strconv.ParseInt(symbolOrID, 10, 64); err == nil {
		return s.repo.GetFundByID(id)
	}

	symbol, err := ingest.ValidateSymbol(symbolOrID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetFundBySymbol(symbol)
}
