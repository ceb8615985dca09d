package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	basicInfoModules = "price,summaryDetail,fundProfile,defaultKeyStatistics"
	fundsDataModules = "topHoldings,fundProfile,assetProfile"
)

// Client talks to the quote provider's REST API. Requests are throttled
// client-side; the provider still rejects bursts with 429 responses, which
// surface as ErrRateLimited for the caller's retry policy.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a provider client. rateLimit is the maximum number of
// requests per minute; zero or negative disables client-side throttling.
func NewClient(baseURL string, rateLimit int, logger zerolog.Logger) *Client {
	limit := rate.Inf
	if rateLimit > 0 {
		limit = rate.Limit(float64(rateLimit) / 60.0)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "etf-service/1.0")

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.With().Str("component", "provider").Logger(),
	}
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type quoteSummaryEnvelope struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *apiError                    `json:"error"`
	} `json:"quoteSummary"`
}

type chartEnvelope struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// BasicInfo fetches the identity and pricing field set for a symbol as one
// flattened FieldMap.
func (c *Client) BasicInfo(ctx context.Context, symbol string) (FieldMap, error) {
	var envelope quoteSummaryEnvelope
	err := c.get(ctx, "/v10/finance/quoteSummary/"+symbol,
		map[string]string{"modules": basicInfoModules}, &envelope)
	if err != nil {
		return nil, err
	}

	if envelope.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("provider error for %s: %s", symbol,
			envelope.QuoteSummary.Error.Description)
	}
	if len(envelope.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}

	fields := FieldMap{}
	for _, raw := range envelope.QuoteSummary.Result[0] {
		module, err := decodeModule(raw)
		if err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("skipping undecodable module")
			continue
		}
		mergeFlattened(fields, module)
	}

	return fields, nil
}

// PriceHistory fetches the daily bar series for a symbol over the given
// lookback period (provider range syntax, e.g. "5y").
func (c *Client) PriceHistory(ctx context.Context, symbol, period string) ([]Bar, error) {
	var envelope chartEnvelope
	err := c.get(ctx, "/v8/finance/chart/"+symbol,
		map[string]string{"range": period, "interval": "1d"}, &envelope)
	if err != nil {
		return nil, err
	}

	if envelope.Chart.Error != nil {
		return nil, fmt.Errorf("provider error for %s: %s", symbol,
			envelope.Chart.Error.Description)
	}
	if len(envelope.Chart.Result) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}

	result := envelope.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		day := time.Unix(ts, 0).UTC()
		bar := Bar{
			Date: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Close) {
			bar.Close = quote.Close[i]
		}
		if i < len(adjClose) {
			bar.AdjustedClose = adjClose[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// FundsData fetches the fund-composition structures for a symbol. Sections
// the provider omits come back nil; the call errors only when the request
// itself fails or the symbol is unknown.
func (c *Client) FundsData(ctx context.Context, symbol string) (*FundsData, error) {
	var envelope quoteSummaryEnvelope
	err := c.get(ctx, "/v10/finance/quoteSummary/"+symbol,
		map[string]string{"modules": fundsDataModules}, &envelope)
	if err != nil {
		return nil, err
	}

	if envelope.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("provider error for %s: %s", symbol,
			envelope.QuoteSummary.Error.Description)
	}
	if len(envelope.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}

	modules := envelope.QuoteSummary.Result[0]
	data := &FundsData{}

	if raw, ok := modules["topHoldings"]; ok {
		if module, err := decodeModule(raw); err == nil {
			data.TopHoldings = parseTopHoldings(module["holdings"])
			data.SectorWeightings = parseSectorWeightings(module["sectorWeightings"])
			data.EquityHoldings = parseEquityHoldings(module["equityHoldings"])
		} else {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("could not decode topHoldings module")
		}
	}

	if raw, ok := modules["fundProfile"]; ok {
		if module, err := decodeModule(raw); err == nil {
			overview := FieldMap{}
			mergeFlattened(overview, module)
			data.FundOverview = overview
			data.FundOperations = parseFundOperations(module)
		} else {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("could not decode fundProfile module")
		}
	}

	if raw, ok := modules["assetProfile"]; ok {
		if module, err := decodeModule(raw); err == nil {
			flat := FieldMap{}
			mergeFlattened(flat, module)
			data.Description = flat.StrOr("longBusinessSummary", "")
		}
	}

	return data, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w", resp.Status(), ErrRateLimited)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("provider returned status %d for %s", resp.StatusCode(), path)
	}

	return nil
}

func decodeModule(raw json.RawMessage) (map[string]any, error) {
	var module map[string]any
	if err := json.Unmarshal(raw, &module); err != nil {
		return nil, err
	}
	return module, nil
}

// mergeFlattened copies scalar fields into dst, unwrapping the provider's
// {raw, fmt} number wrappers. Nested objects that aren't wrappers and arrays
// are dropped; the composition parsers handle those explicitly.
func mergeFlattened(dst FieldMap, module map[string]any) {
	for key, value := range module {
		switch v := value.(type) {
		case map[string]any:
			if raw, ok := v["raw"]; ok {
				dst[key] = raw
			}
		case []any:
			// structured section, handled elsewhere
		default:
			dst[key] = v
		}
	}
}

func unwrapFloat(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case map[string]any:
		if raw, ok := v["raw"].(float64); ok {
			return &raw
		}
	}
	return nil
}

func parseTopHoldings(value any) []TopHolding {
	rows, ok := value.([]any)
	if !ok {
		return nil
	}

	holdings := make([]TopHolding, 0, len(rows))
	for _, row := range rows {
		entry, ok := row.(map[string]any)
		if !ok {
			continue
		}
		fields := FieldMap{}
		mergeFlattened(fields, entry)

		holdings = append(holdings, TopHolding{
			Symbol: fields.StrOr("symbol", ""),
			Name:   fields.StrOr("holdingName", ""),
			Weight: unwrapFloat(entry["holdingPercent"]),
		})
	}
	return holdings
}

func parseSectorWeightings(value any) map[string]float64 {
	rows, ok := value.([]any)
	if !ok {
		return nil
	}

	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		entry, ok := row.(map[string]any)
		if !ok {
			continue
		}
		for sector, wrapped := range entry {
			if w := unwrapFloat(wrapped); w != nil {
				weights[sector] = *w
			}
		}
	}
	if len(weights) == 0 {
		return nil
	}
	return weights
}

func parseEquityHoldings(value any) *EquityTable {
	entry, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	fields := FieldMap{}
	mergeFlattened(fields, entry)

	return &EquityTable{
		PriceEarnings:          fields.Float("priceToEarnings"),
		PriceBook:              fields.Float("priceToBook"),
		PriceSales:             fields.Float("priceToSales"),
		PriceCashflow:          fields.Float("priceToCashflow"),
		MedianMarketCap:        fields.Float("medianMarketCap"),
		GeometricMeanMarketCap: fields.Float("geometricMeanMarketCap"),
		CategoryPriceEarnings:  fields.Float("priceToEarningsCat"),
		CategoryPriceBook:      fields.Float("priceToBookCat"),
		CategoryPriceSales:     fields.Float("priceToSalesCat"),
	}
}

func parseFundOperations(module map[string]any) *OperationsTable {
	fees, ok := module["feesExpensesInvestment"].(map[string]any)
	if !ok {
		return nil
	}
	fields := FieldMap{}
	mergeFlattened(fields, fees)

	ops := &OperationsTable{
		ExpenseRatio:     fields.Float("annualReportExpenseRatio"),
		HoldingsTurnover: fields.Float("annualHoldingsTurnover"),
		TotalNetAssets:   fields.Float("totalNetAssets"),
	}

	if cat, ok := module["feesExpensesInvestmentCat"].(map[string]any); ok {
		catFields := FieldMap{}
		mergeFlattened(catFields, cat)
		ops.CategoryExpenseRatio = catFields.Float("annualReportExpenseRatio")
		ops.CategoryTurnover = catFields.Float("annualHoldingsTurnover")
	}

	return ops
}
