package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
)

type ChainSource interface {
	Get(symbol eventmodels.StockSymbol) (*eventmodels.OptionChain, bool)
	Symbols() []eventmodels.StockSymbol
}

type TickSource interface {
	GetLastTick(conID int) (*eventmodels.Tick, bool)
}

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func setResponse(response interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("setResponse: encode: %w", err)
	}

	return nil
}

func setErrorResponse(errType string, statusCode int, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := &errorResponse{
		Type: errType,
		Msg:  err.Error(),
	}

	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		log.Errorf("setErrorResponse: encode: %v", encodeErr)
	}
}

type getChainRequest struct {
	MinStrike *float64 `schema:"min_strike"`
	MaxStrike *float64 `schema:"max_strike"`
}

type chainResponseDTO struct {
	UnderlyingSymbol eventmodels.StockSymbol       `json:"underlying_symbol"`
	UnderlyingConID  string                        `json:"underlying_conid"`
	UnderlyingPrice  float64                       `json:"underlying_price"`
	Month            string                        `json:"month"`
	FetchedAt        time.Time                     `json:"fetched_at"`
	Contracts        []*eventmodels.OptionContract `json:"contracts"`
}

type priceResponseDTO struct {
	Symbol    eventmodels.StockSymbol `json:"symbol"`
	ConID     string                  `json:"conid"`
	Price     float64                 `json:"price"`
	Source    string                  `json:"source"`
	Timestamp time.Time               `json:"timestamp"`
}

type chainsHandler struct {
	chains ChainSource
	ticks  TickSource
}

func SetupHandler(router *mux.Router, chains ChainSource, ticks TickSource) {
	h := &chainsHandler{
		chains: chains,
		ticks:  ticks,
	}

	router.HandleFunc("", h.listSymbols).Methods("GET")
	router.HandleFunc("/{symbol}", h.getChain).Methods("GET")
	router.HandleFunc("/{symbol}/price", h.getPrice).Methods("GET")
}

func (h *chainsHandler) listSymbols(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"symbols": h.chains.Symbols(),
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("listSymbols: failed to set response", 500, err, w)
	}
}

func (h *chainsHandler) getChain(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := eventmodels.NewStockSymbol(vars["symbol"])

	var req getChainRequest
	if err := queryDecoder.Decode(&req, r.URL.Query()); err != nil {
		setErrorResponse("getChain: invalid query parameters", 400, err, w)
		return
	}

	chain, found := h.chains.Get(symbol)
	if !found {
		setErrorResponse("getChain: chain not found", 404, fmt.Errorf("no chain cached for %s", symbol), w)
		return
	}

	var contracts []*eventmodels.OptionContract
	for _, contract := range chain.SortedContracts() {
		if req.MinStrike != nil && contract.Strike < *req.MinStrike {
			continue
		}

		if req.MaxStrike != nil && contract.Strike > *req.MaxStrike {
			continue
		}

		contracts = append(contracts, contract)
	}

	response := &chainResponseDTO{
		UnderlyingSymbol: chain.UnderlyingSymbol,
		UnderlyingConID:  chain.UnderlyingConID,
		UnderlyingPrice:  chain.UnderlyingPrice,
		Month:            chain.Month,
		FetchedAt:        chain.FetchedAt,
		Contracts:        contracts,
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("getChain: failed to set response", 500, err, w)
	}
}

// getPrice prefers the streamed tick over the snapshot price captured
// at fetch time.
func (h *chainsHandler) getPrice(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := eventmodels.NewStockSymbol(vars["symbol"])

	chain, found := h.chains.Get(symbol)
	if !found {
		setErrorResponse("getPrice: chain not found", 404, fmt.Errorf("no chain cached for %s", symbol), w)
		return
	}

	response := &priceResponseDTO{
		Symbol:    chain.UnderlyingSymbol,
		ConID:     chain.UnderlyingConID,
		Price:     chain.UnderlyingPrice,
		Source:    "snapshot",
		Timestamp: chain.FetchedAt,
	}

	if conID, err := strconv.Atoi(chain.UnderlyingConID); err == nil {
		if tick, ok := h.ticks.GetLastTick(conID); ok {
			response.Price = tick.Price
			response.Source = "stream"
			response.Timestamp = tick.Timestamp
		}
	}

	if err := setResponse(response, w); err != nil {
		setErrorResponse("getPrice: failed to set response", 500, err, w)
	}
}
