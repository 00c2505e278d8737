package eventservices

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
)

const (
	defaultSnapshotPause = 500 * time.Millisecond
	defaultBatchDelay    = 100 * time.Millisecond
)

type ProgressFunc func(current int, total int, strike float64)

// FindSecurityContract resolves the underlying conid and the available
// option expiration months for a symbol on its primary exchange.
func FindSecurityContract(ctx context.Context, client *GatewayClient, symbol eventmodels.StockSymbol, exchange string) (string, []string, error) {
	log.Infof("Searching for %s on %s", symbol, exchange)

	dtos, err := client.FetchSecDefSearch(ctx, symbol)
	if err != nil {
		return "", nil, fmt.Errorf("FindSecurityContract: failed to search for %s: %w", symbol, err)
	}

	for _, dto := range dtos {
		if dto.Description != exchange {
			continue
		}

		conID := dto.ConID.String()
		months := dto.OptionMonths()

		if conID == "" {
			continue
		}

		if len(months) == 0 {
			return "", nil, fmt.Errorf("FindSecurityContract: contract %s for %s: %w", conID, symbol, eventmodels.ErrNoOptionMonths)
		}

		log.Infof("Found contract %s with %d expiration months", conID, len(months))
		return conID, months, nil
	}

	return "", nil, fmt.Errorf("FindSecurityContract: %s on %s: %w", symbol, exchange, eventmodels.ErrSecurityNotFound)
}

// FetchUnderlyingPrice fetches the last price for a conid. The gateway
// requires a preflight snapshot request before market data is
// populated, so the endpoint is hit twice with a short pause between.
func FetchUnderlyingPrice(ctx context.Context, client *GatewayClient, conID string, pause time.Duration) (float64, error) {
	log.Infof("Fetching current price for contract %s", conID)

	if pause <= 0 {
		pause = defaultSnapshotPause
	}

	if _, err := client.FetchMarketDataSnapshot(ctx, conID); err != nil {
		return 0, fmt.Errorf("FetchUnderlyingPrice: preflight request failed: %w", err)
	}

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-time.After(pause):
	}

	dtos, err := client.FetchMarketDataSnapshot(ctx, conID)
	if err != nil {
		return 0, fmt.Errorf("FetchUnderlyingPrice: snapshot request failed: %w", err)
	}

	if len(dtos) == 0 {
		return 0, fmt.Errorf("FetchUnderlyingPrice: empty snapshot for %s: %w", conID, eventmodels.ErrNoPriceAvailable)
	}

	price, err := dtos[0].ToLastPrice()
	if err != nil {
		return 0, fmt.Errorf("FetchUnderlyingPrice: %w", err)
	}

	log.Infof("Current price: %.2f", price)

	return price, nil
}

// FilterStrikesNearPrice keeps the strikes within priceRange of price,
// bounds inclusive, sorted ascending.
func FilterStrikesNearPrice(strikes []float64, price float64, priceRange float64) []float64 {
	lowerBound := price - priceRange
	upperBound := price + priceRange

	var filtered []float64
	for _, strike := range strikes {
		if strike >= lowerBound && strike <= upperBound {
			filtered = append(filtered, strike)
		}
	}

	sort.Float64s(filtered)

	return filtered
}

func FetchStrikesNearPrice(ctx context.Context, client *GatewayClient, conID string, month string, price float64, priceRange float64) ([]float64, error) {
	log.Infof("Fetching strikes for month %s, price range: %.2f +/- %.2f", month, price, priceRange)

	dto, err := client.FetchStrikes(ctx, conID, month)
	if err != nil {
		return nil, fmt.Errorf("FetchStrikesNearPrice: failed to fetch strikes for %s: %w", conID, err)
	}

	// The put list is read; the call list normally matches
	filtered := FilterStrikesNearPrice(dto.Put, price, priceRange)

	log.Infof("Found %d strikes in range", len(filtered))

	return filtered, nil
}

// FetchContractDetails fetches the contracts for one strike. Records
// that fail validation are skipped with a warning.
func FetchContractDetails(ctx context.Context, client *GatewayClient, underlying eventmodels.StockSymbol, conID string, month string, strike float64, optionType eventmodels.OptionType) ([]*eventmodels.OptionContract, error) {
	dtos, err := client.FetchSecDefInfo(ctx, conID, month, strike, optionType.Right())
	if err != nil {
		return nil, fmt.Errorf("FetchContractDetails: failed to fetch contract details for strike %.2f: %w", strike, err)
	}

	var contracts []*eventmodels.OptionContract
	for _, dto := range dtos {
		contract, convErr := dto.ToModel(underlying, optionType)
		if convErr != nil {
			log.Warnf("FetchContractDetails: skipping invalid contract data: %v", convErr)
			continue
		}

		contracts = append(contracts, contract)
	}

	log.Debugf("Retrieved %d valid contracts for strike %.2f", len(contracts), strike)

	return contracts, nil
}

// FetchContractDetailsBatch fetches contract details for each strike,
// pausing between requests. A failed strike is logged and skipped;
// context cancellation aborts the batch.
func FetchContractDetailsBatch(ctx context.Context, client *GatewayClient, underlying eventmodels.StockSymbol, conID string, month string, strikes []float64, optionType eventmodels.OptionType, delay time.Duration, progress ProgressFunc) (map[float64][]*eventmodels.OptionContract, error) {
	log.Infof("Processing %d strikes in batch", len(strikes))

	if delay <= 0 {
		delay = defaultBatchDelay
	}

	results := make(map[float64][]*eventmodels.OptionContract)

	for i, strike := range strikes {
		if progress != nil {
			progress(i+1, len(strikes), strike)
		}

		contracts, err := FetchContractDetails(ctx, client, underlying, conID, month, strike, optionType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("FetchContractDetailsBatch: %w", ctx.Err())
			}

			log.Errorf("FetchContractDetailsBatch: strike %.2f: %v", strike, err)
			continue
		}

		if len(contracts) > 0 {
			results[strike] = contracts
		}

		if i < len(strikes)-1 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("FetchContractDetailsBatch: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	log.Infof("Batch processing complete: %d/%d strikes successful", len(results), len(strikes))

	return results, nil
}

type FetchOptionChainParams struct {
	Symbol     eventmodels.StockSymbol
	Exchange   string
	PriceRange float64
	OptionType eventmodels.OptionType
	// Month selects the expiration month; empty means front month.
	Month         string
	SnapshotPause time.Duration
	BatchDelay    time.Duration
	Progress      ProgressFunc
}

func (p FetchOptionChainParams) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("FetchOptionChainParams: Validate: symbol is required")
	}

	if p.Exchange == "" {
		return fmt.Errorf("FetchOptionChainParams: Validate: exchange is required")
	}

	if p.PriceRange <= 0 {
		return fmt.Errorf("FetchOptionChainParams: Validate: price range must be positive, got %.2f", p.PriceRange)
	}

	return p.OptionType.Validate()
}

// FetchOptionChain runs the full pipeline: resolve the underlying,
// fetch its price, filter the strike grid and pull contract details
// per strike.
func FetchOptionChain(ctx context.Context, client *GatewayClient, params FetchOptionChainParams) (*eventmodels.OptionChain, error) {
	tracer := otel.Tracer("FetchOptionChain")
	_, span := tracer.Start(ctx, "FetchOptionChain")
	defer span.End()

	if err := params.Validate(); err != nil {
		return nil, err
	}

	conID, months, err := FindSecurityContract(ctx, client, params.Symbol, params.Exchange)
	if err != nil {
		return nil, err
	}

	month := params.Month
	if month == "" {
		month = months[0]
	} else {
		found := false
		for _, m := range months {
			if m == month {
				found = true
				break
			}
		}

		if !found {
			return nil, fmt.Errorf("FetchOptionChain: month %s not available for %s", month, params.Symbol)
		}
	}

	log.Infof("Target month: %s", month)

	price, err := FetchUnderlyingPrice(ctx, client, conID, params.SnapshotPause)
	if err != nil {
		return nil, err
	}

	strikes, err := FetchStrikesNearPrice(ctx, client, conID, month, price, params.PriceRange)
	if err != nil {
		return nil, err
	}

	if len(strikes) == 0 {
		return nil, fmt.Errorf("FetchOptionChain: %s month %s: %w", params.Symbol, month, eventmodels.ErrNoStrikesInRange)
	}

	contractsByStrike, err := FetchContractDetailsBatch(ctx, client, params.Symbol, conID, month, strikes, params.OptionType, params.BatchDelay, params.Progress)
	if err != nil {
		return nil, err
	}

	chain := eventmodels.NewOptionChain(params.Symbol, conID, price, month, time.Now().UTC())
	for strike, contracts := range contractsByStrike {
		chain.AddContracts(strike, contracts)
	}

	log.Infof("Fetched %d contracts across %d strikes for %s", chain.NumContracts(), len(chain.ContractsByStrike), params.Symbol)

	return chain, nil
}
