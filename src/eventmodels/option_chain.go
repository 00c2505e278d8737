package eventmodels

import (
	"sort"
	"time"
)

// OptionChain holds the contracts fetched for one underlying and
// expiration month, grouped by strike.
type OptionChain struct {
	UnderlyingSymbol  StockSymbol                   `json:"underlying_symbol"`
	UnderlyingConID   string                        `json:"underlying_conid"`
	UnderlyingPrice   float64                       `json:"underlying_price"`
	Month             string                        `json:"month"`
	FetchedAt         time.Time                     `json:"fetched_at"`
	ContractsByStrike map[float64][]*OptionContract `json:"contracts_by_strike"`
}

func NewOptionChain(symbol StockSymbol, conID string, price float64, month string, fetchedAt time.Time) *OptionChain {
	return &OptionChain{
		UnderlyingSymbol:  symbol,
		UnderlyingConID:   conID,
		UnderlyingPrice:   price,
		Month:             month,
		FetchedAt:         fetchedAt,
		ContractsByStrike: make(map[float64][]*OptionContract),
	}
}

func (c *OptionChain) AddContracts(strike float64, contracts []*OptionContract) {
	if len(contracts) == 0 {
		return
	}

	c.ContractsByStrike[strike] = append(c.ContractsByStrike[strike], contracts...)
}

// Strikes returns the populated strikes in ascending order.
func (c *OptionChain) Strikes() []float64 {
	strikes := make([]float64, 0, len(c.ContractsByStrike))
	for strike := range c.ContractsByStrike {
		strikes = append(strikes, strike)
	}

	sort.Float64s(strikes)

	return strikes
}

func (c *OptionChain) NumContracts() int {
	total := 0
	for _, contracts := range c.ContractsByStrike {
		total += len(contracts)
	}

	return total
}

// SortedContracts returns all contracts ordered by ascending strike.
func (c *OptionChain) SortedContracts() []*OptionContract {
	var contracts []*OptionContract
	for _, strike := range c.Strikes() {
		contracts = append(contracts, c.ContractsByStrike[strike]...)
	}

	return contracts
}
