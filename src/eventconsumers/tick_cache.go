package eventconsumers

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/petewilburn/ibkr-options-chains/src/eventmodels"
	"github.com/petewilburn/ibkr-options-chains/src/eventpubsub"
)

// TickCacheConsumer keeps the latest streamed tick per conid for the
// read API.
type TickCacheConsumer struct {
	mu        sync.RWMutex
	lastTicks map[int]*eventmodels.Tick
}

func NewTickCacheConsumer() *TickCacheConsumer {
	return &TickCacheConsumer{
		lastTicks: make(map[int]*eventmodels.Tick),
	}
}

func (c *TickCacheConsumer) Start() error {
	return eventpubsub.Subscribe(eventpubsub.NewTickEvent, c.onTick)
}

func (c *TickCacheConsumer) onTick(tick *eventmodels.Tick) {
	if tick == nil {
		log.Warn("TickCacheConsumer: received nil tick")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, found := c.lastTicks[tick.ConID]
	if found && existing.Timestamp.After(tick.Timestamp) {
		return
	}

	c.lastTicks[tick.ConID] = tick
}

func (c *TickCacheConsumer) GetLastTick(conID int) (*eventmodels.Tick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tick, found := c.lastTicks[conID]
	return tick, found
}
