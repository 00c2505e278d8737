package eventservices

import (
	"sort"
	"sync"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
)

// ChainCache holds the most recently fetched chain per underlying for
// the read API.
type ChainCache struct {
	mu     sync.RWMutex
	chains map[eventmodels.StockSymbol]*eventmodels.OptionChain
}

func NewChainCache() *ChainCache {
	return &ChainCache{
		chains: make(map[eventmodels.StockSymbol]*eventmodels.OptionChain),
	}
}

func (c *ChainCache) Put(chain *eventmodels.OptionChain) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chains[chain.UnderlyingSymbol] = chain
}

func (c *ChainCache) Get(symbol eventmodels.StockSymbol) (*eventmodels.OptionChain, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chain, found := c.chains[symbol]
	return chain, found
}

func (c *ChainCache) Symbols() []eventmodels.StockSymbol {
	c.mu.RLock()
	defer c.mu.RUnlock()

	symbols := make([]eventmodels.StockSymbol, 0, len(c.chains))
	for symbol := range c.chains {
		symbols = append(symbols, symbol)
	}

	sort.Slice(symbols, func(i, j int) bool {
		return symbols[i] < symbols[j]
	})

	return symbols
}
