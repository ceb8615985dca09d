package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/fundboard/etf-service/internal/database"
	"github.com/fundboard/etf-service/internal/ingest"
	"github.com/fundboard/etf-service/internal/service"
)

// Handler holds the HTTP handlers for the fund API.
type Handler struct {
	funds *service.FundService
	log   zerolog.Logger
}

// NewHandler creates a Handler backed by the given service.
func NewHandler(funds *service.FundService, logger zerolog.Logger) *Handler {
	return &Handler{
		funds: funds,
		log:   logger.With().Str("component", "api").Logger(),
	}
}

type insertFundRequest struct {
	Symbol         string `json:"symbol"`
	IncludeHistory bool   `json:"include_history"`
}

// fundEnvelope is the response shape for fund insertion.
type fundEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Fund    any    `json:"fund,omitempty"`
}

// HealthCheck responds with service liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListFunds returns all tracked funds.
func (h *Handler) ListFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.funds.ListFunds()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list funds")
		respondWithError(w, http.StatusInternalServerError, "failed to list funds")
		return
	}
	respondWithJSON(w, http.StatusOK, funds)
}

// InsertFund validates and ingests a new fund symbol.
func (h *Handler) InsertFund(w http.ResponseWriter, r *http.Request) {
	var req insertFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	detail, err := h.funds.InsertFund(r.Context(), req.Symbol, req.IncludeHistory)
	if err != nil {
		var exists *service.AlreadyExistsError
		switch {
		case errors.Is(err, ingest.ErrInvalidSymbol):
			respondWithJSON(w, http.StatusBadRequest, fundEnvelope{
				Success: false,
				Message: err.Error(),
			})
		case errors.As(err, &exists):
			respondWithJSON(w, http.StatusConflict, fundEnvelope{
				Success: false,
				Message: fmt.Sprintf("fund %s already exists", exists.Fund.Symbol),
				Fund:    exists.Fund,
			})
		case errors.Is(err, service.ErrIngestionFailed):
			h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("fund insertion failed upstream")
			respondWithJSON(w, http.StatusBadGateway, fundEnvelope{
				Success: false,
				Message: "could not retrieve data for symbol",
			})
		default:
			h.log.Error().Err(err).Str("symbol", req.Symbol).Msg("fund insertion failed")
			respondWithError(w, http.StatusInternalServerError, "failed to insert fund")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, fundEnvelope{
		Success: true,
		Message: fmt.Sprintf("fund %s added", detail.Symbol),
		Fund:    detail,
	})
}

// GetFund returns one fund with its snapshot entities. The path parameter may
// be a symbol or a numeric id.
func (h *Handler) GetFund(w http.ResponseWriter, r *http.Request) {
	detail, err := h.funds.GetFundDetail(mux.Vars(r)["symbolOrID"])
	if err != nil {
		h.respondLookupError(w, err, "failed to load fund")
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// GetHoldings returns the holdings snapshot for a fund.
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.funds.GetHoldings(mux.Vars(r)["symbolOrID"])
	if err != nil {
		h.respondLookupError(w, err, "failed to load holdings")
		return
	}
	respondWithJSON(w, http.StatusOK, holdings)
}

// GetSectorAllocations returns the sector snapshot for a fund.
func (h *Handler) GetSectorAllocations(w http.ResponseWriter, r *http.Request) {
	sectors, err := h.funds.GetSectorAllocations(mux.Vars(r)["symbolOrID"])
	if err != nil {
		h.respondLookupError(w, err, "failed to load sector allocations")
		return
	}
	respondWithJSON(w, http.StatusOK, sectors)
}

// GetPriceHistory returns daily prices, optionally bounded by start and end
// query parameters in YYYY-MM-DD form.
func (h *Handler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "start")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	prices, err := h.funds.GetPriceHistory(mux.Vars(r)["symbolOrID"], start, end)
	if err != nil {
		h.respondLookupError(w, err, "failed to load price history")
		return
	}
	respondWithJSON(w, http.StatusOK, prices)
}

// GetLatestPrice returns the most recent price point for a fund.
func (h *Handler) GetLatestPrice(w http.ResponseWriter, r *http.Request) {
	point, err := h.funds.GetLatestPrice(r.Context(), mux.Vars(r)["symbolOrID"])
	if err != nil {
		h.respondLookupError(w, err, "failed to load latest price")
		return
	}
	respondWithJSON(w, http.StatusOK, point)
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "fund not found")
	case errors.Is(err, ingest.ErrInvalidSymbol):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error().Err(err).Msg(message)
		respondWithError(w, http.StatusInternalServerError, message)
	}
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date, expected YYYY-MM-DD", name)
	}
	return &t, nil
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
