package eventservices

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
)

func newGatewayStub(t *testing.T, snapshotRequests *int32) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/v1/api/iserver/secdef/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, `[
			{"conid": 1111, "description": "NYSE", "symbol": "AAPL", "sections": []},
			{"conid": 265598, "description": "NASDAQ", "symbol": "AAPL", "sections": [{"secType": "OPT", "months": "JAN26;FEB26"}]}
		]`)
	})

	mux.HandleFunc("/v1/api/iserver/marketdata/snapshot", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "265598", r.URL.Query().Get("conids"))
		assert.Equal(t, "31", r.URL.Query().Get("fields"))

		if atomic.AddInt32(snapshotRequests, 1) == 1 {
			// preflight response carries no market data yet
			fmt.Fprint(w, `[{"conid": 265598}]`)
			return
		}

		fmt.Fprint(w, `[{"conid": 265598, "31": "189.50", "_updated": 1700000000000}]`)
	})

	mux.HandleFunc("/v1/api/iserver/secdef/strikes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "JAN26", r.URL.Query().Get("month"))
		assert.Equal(t, "OPT", r.URL.Query().Get("secType"))
		fmt.Fprint(w, `{"call": [170, 180, 185, 190, 195, 210], "put": [170, 180, 185, 190, 195, 210]}`)
	})

	mux.HandleFunc("/v1/api/iserver/secdef/info", func(w http.ResponseWriter, r *http.Request) {
		strike := r.URL.Query().Get("strike")
		assert.Equal(t, "P", r.URL.Query().Get("right"))
		fmt.Fprintf(w, `[{"conid": 9%s, "symbol": "AAPL", "strike": %s, "maturityDate": "20260116", "right": "P"}]`, strike, strike)
	})

	return httptest.NewServer(mux)
}

func newTestClient(serverURL string) *GatewayClient {
	client := NewGatewayClient(serverURL, 5*time.Second)
	client.BaseDelay = time.Millisecond

	return client
}

func TestFilterStrikesNearPrice(t *testing.T) {
	strikes := []float64{210, 170, 180, 185, 190, 195}

	t.Run("inclusive bounds", func(t *testing.T) {
		filtered := FilterStrikesNearPrice(strikes, 190, 10)
		assert.Equal(t, []float64{180, 185, 190, 195}, filtered)
	})

	t.Run("sorted ascending", func(t *testing.T) {
		filtered := FilterStrikesNearPrice(strikes, 190, 25)
		assert.Equal(t, []float64{170, 180, 185, 190, 195, 210}, filtered)
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, FilterStrikesNearPrice(strikes, 500, 10))
	})
}

func TestFindSecurityContract(t *testing.T) {
	var snapshotRequests int32
	server := newGatewayStub(t, &snapshotRequests)
	defer server.Close()

	client := newTestClient(server.URL)

	conID, months, err := FindSecurityContract(context.Background(), client, "AAPL", "NASDAQ")
	require.NoError(t, err)

	assert.Equal(t, "265598", conID)
	assert.Equal(t, []string{"JAN26", "FEB26"}, months)
}

func TestFindSecurityContractNotFound(t *testing.T) {
	var snapshotRequests int32
	server := newGatewayStub(t, &snapshotRequests)
	defer server.Close()

	client := newTestClient(server.URL)

	_, _, err := FindSecurityContract(context.Background(), client, "AAPL", "LSE")
	assert.ErrorIs(t, err, eventmodels.ErrSecurityNotFound)
}

func TestFetchUnderlyingPrice(t *testing.T) {
	var snapshotRequests int32
	server := newGatewayStub(t, &snapshotRequests)
	defer server.Close()

	client := newTestClient(server.URL)

	price, err := FetchUnderlyingPrice(context.Background(), client, "265598", 5*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 189.50, price)
	assert.Equal(t, int32(2), atomic.LoadInt32(&snapshotRequests), "expected preflight plus fetch")
}

func TestFetchOptionChain(t *testing.T) {
	var snapshotRequests int32
	server := newGatewayStub(t, &snapshotRequests)
	defer server.Close()

	client := newTestClient(server.URL)

	var progressCalls int
	params := FetchOptionChainParams{
		Symbol:        "AAPL",
		Exchange:      "NASDAQ",
		PriceRange:    10,
		OptionType:    eventmodels.OptionTypePut,
		SnapshotPause: 5 * time.Millisecond,
		BatchDelay:    time.Millisecond,
		Progress: func(current int, total int, strike float64) {
			progressCalls++
			assert.Equal(t, 4, total)
		},
	}

	chain, err := FetchOptionChain(context.Background(), client, params)
	require.NoError(t, err)

	assert.Equal(t, eventmodels.StockSymbol("AAPL"), chain.UnderlyingSymbol)
	assert.Equal(t, "265598", chain.UnderlyingConID)
	assert.Equal(t, 189.50, chain.UnderlyingPrice)
	assert.Equal(t, "JAN26", chain.Month)

	// 189.50 +/- 10 keeps 180, 185, 190 and 195
	assert.Equal(t, []float64{180, 185, 190, 195}, chain.Strikes())
	assert.Equal(t, 4, chain.NumContracts())
	assert.Equal(t, 4, progressCalls)

	for _, contract := range chain.SortedContracts() {
		assert.NoError(t, contract.Validate())
		assert.Equal(t, eventmodels.OptionTypePut, contract.OptionType)
		assert.Equal(t, "20260116", contract.MaturityDate)
	}
}

func TestFetchOptionChainUnknownMonth(t *testing.T) {
	var snapshotRequests int32
	server := newGatewayStub(t, &snapshotRequests)
	defer server.Close()

	client := newTestClient(server.URL)

	params := FetchOptionChainParams{
		Symbol:     "AAPL",
		Exchange:   "NASDAQ",
		PriceRange: 10,
		OptionType: eventmodels.OptionTypePut,
		Month:      "DEC99",
	}

	_, err := FetchOptionChain(context.Background(), client, params)
	assert.Error(t, err)
}

func TestFetchOptionChainParamsValidate(t *testing.T) {
	params := FetchOptionChainParams{
		Symbol:     "AAPL",
		Exchange:   "NASDAQ",
		PriceRange: 10,
		OptionType: eventmodels.OptionTypePut,
	}

	assert.NoError(t, params.Validate())

	t.Run("missing symbol", func(t *testing.T) {
		p := params
		p.Symbol = ""
		assert.Error(t, p.Validate())
	})

	t.Run("non-positive price range", func(t *testing.T) {
		p := params
		p.PriceRange = 0
		assert.Error(t, p.Validate())
	})

	t.Run("invalid option type", func(t *testing.T) {
		p := params
		p.OptionType = "spread"
		assert.Error(t, p.Validate())
	})
}
