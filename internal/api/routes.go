package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the HTTP route table for the fund API.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/funds", h.ListFunds).Methods(http.MethodGet)
	api.HandleFunc("/funds", h.InsertFund).Methods(http.MethodPost)
	api.HandleFunc("/funds/{symbolOrID}", h.GetFund).Methods(http.MethodGet)
	api.HandleFunc("/funds/{symbolOrID}/holdings", h.GetHoldings).Methods(http.MethodGet)
	api.HandleFunc("/funds/{symbolOrID}/sectors", h.GetSectorAllocations).Methods(http.MethodGet)
	api.HandleFunc("/funds/{symbolOrID}/prices", h.GetPriceHistory).Methods(http.MethodGet)
	api.HandleFunc("/funds/{symbolOrID}/prices/latest", h.GetLatestPrice).Methods(http.MethodGet)

	return r
}
