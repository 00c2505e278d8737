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

func TestGatewayClientRetriesTransientFailures(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		fmt.Fprint(w, `[{"conid": 265598, "description": "NASDAQ", "symbol": "AAPL", "sections": [{"secType": "OPT", "months": "JAN26"}]}]`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	dtos, err := client.FetchSecDefSearch(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, dtos, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))

	summary := client.Monitor.Summary()
	assert.Equal(t, 1, summary.TotalRequests)
	assert.Equal(t, 1, summary.SuccessfulRequests)
}

func TestGatewayClientExhaustsAttempts(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchSecDefSearch(context.Background(), "AAPL")
	require.Error(t, err)

	var apiErr *eventmodels.GatewayAPIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int32(client.MaxAttempts), atomic.LoadInt32(&hits))

	summary := client.Monitor.Summary()
	assert.Equal(t, 1, summary.TotalRequests)
	assert.Equal(t, 1, summary.FailedRequests)
}

func TestGatewayClientMalformedResponseNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{not json`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchSecDefSearch(context.Background(), "AAPL")
	require.Error(t, err)

	var apiErr *eventmodels.GatewayAPIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "decode failures are not transport failures")
}

func TestGatewayClientRespectsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.BaseDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := client.FetchSecDefSearch(ctx, "AAPL")
	require.Error(t, err)

	assert.Less(t, time.Since(start), time.Second, "cancelled context must not wait out the backoff")
}
