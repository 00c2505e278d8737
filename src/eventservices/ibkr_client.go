package eventservices

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
)

const (
	secDefSearchEndpoint  = "/v1/api/iserver/secdef/search"
	secDefStrikesEndpoint = "/v1/api/iserver/secdef/strikes"
	secDefInfoEndpoint    = "/v1/api/iserver/secdef/info"
	snapshotEndpoint      = "/v1/api/iserver/marketdata/snapshot"
)

// GatewayClient is a session against the local Client Portal Gateway.
// Transport failures and bad statuses are retried with exponential
// backoff plus jitter; malformed payloads fail immediately.
type GatewayClient struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	Monitor     *RequestMonitor

	client *http.Client
}

func NewGatewayClient(baseURL string, timeout time.Duration) *GatewayClient {
	// The gateway serves a self-signed cert on localhost
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	return &GatewayClient{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Timeout:     timeout,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Monitor:     NewRequestMonitor(),
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (c *GatewayClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	requestID := uuid.New()

	urlStr := c.BaseURL + endpoint
	if len(params) > 0 {
		urlStr += "?" + params.Encode()
	}

	start := time.Now()
	success := false
	defer func() {
		c.Monitor.RecordRequest(success, time.Since(start))
	}()

	var lastErr error

	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		body, err := c.doRequest(ctx, urlStr)
		if err == nil {
			success = true
			log.Debugf("gateway request %s successful: %s", requestID, endpoint)
			return body, nil
		}

		lastErr = err

		if attempt < c.MaxAttempts-1 {
			delay := c.BaseDelay*(1<<attempt) + time.Duration(rand.Float64()*float64(c.BaseDelay))
			log.Warnf("gateway request %s failed (attempt %d/%d), retrying in %v: %v", requestID, attempt+1, c.MaxAttempts, delay, err)

			select {
			case <-ctx.Done():
				return nil, eventmodels.NewGatewayAPIError(endpoint, ctx.Err())
			case <-time.After(delay):
			}
		} else {
			log.Errorf("gateway request %s failed: all %d attempts exhausted", requestID, c.MaxAttempts)
		}
	}

	return nil, eventmodels.NewGatewayAPIError(endpoint, lastErr)
}

func (c *GatewayClient) doRequest(ctx context.Context, urlStr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("doRequest: failed to create request: %w", err)
	}

	req.Header.Add("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doRequest: request failed: %w", err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("doRequest: failed to read response body: %w", err)
	}

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("doRequest: unexpected status: %s", res.Status)
	}

	return body, nil
}

func (c *GatewayClient) FetchSecDefSearch(ctx context.Context, symbol eventmodels.StockSymbol) ([]eventmodels.SecDefSearchDTO, error) {
	params := url.Values{}
	params.Set("symbol", symbol.String())

	body, err := c.get(ctx, secDefSearchEndpoint, params)
	if err != nil {
		return nil, err
	}

	var dtos []eventmodels.SecDefSearchDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, eventmodels.NewGatewayAPIError(secDefSearchEndpoint, fmt.Errorf("invalid JSON response: %w", err))
	}

	return dtos, nil
}

func (c *GatewayClient) FetchMarketDataSnapshot(ctx context.Context, conID string) ([]eventmodels.MarketDataSnapshotDTO, error) {
	params := url.Values{}
	params.Set("conids", conID)
	params.Set("fields", "31")

	body, err := c.get(ctx, snapshotEndpoint, params)
	if err != nil {
		return nil, err
	}

	var dtos []eventmodels.MarketDataSnapshotDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, eventmodels.NewGatewayAPIError(snapshotEndpoint, fmt.Errorf("invalid JSON response: %w", err))
	}

	return dtos, nil
}

func (c *GatewayClient) FetchStrikes(ctx context.Context, conID string, month string) (*eventmodels.StrikesDTO, error) {
	params := url.Values{}
	params.Set("conid", conID)
	params.Set("secType", "OPT")
	params.Set("month", month)

	body, err := c.get(ctx, secDefStrikesEndpoint, params)
	if err != nil {
		return nil, err
	}

	var dto eventmodels.StrikesDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, eventmodels.NewGatewayAPIError(secDefStrikesEndpoint, fmt.Errorf("invalid JSON response: %w", err))
	}

	return &dto, nil
}

func (c *GatewayClient) FetchSecDefInfo(ctx context.Context, conID string, month string, strike float64, right string) ([]eventmodels.OptionContractDTO, error) {
	params := url.Values{}
	params.Set("conid", conID)
	params.Set("month", month)
	params.Set("strike", strconv.FormatFloat(strike, 'f', -1, 64))
	params.Set("secType", "OPT")
	params.Set("right", right)

	body, err := c.get(ctx, secDefInfoEndpoint, params)
	if err != nil {
		return nil, err
	}

	var dtos []eventmodels.OptionContractDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		return nil, eventmodels.NewGatewayAPIError(secDefInfoEndpoint, fmt.Errorf("invalid JSON response: %w", err))
	}

	return dtos, nil
}
