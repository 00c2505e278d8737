package eventmodels

import (
	"encoding/json"
	"fmt"
)

// MarketDataSnapshotDTO is one element of the /iserver/marketdata/snapshot
// response. Field 31 is the last price; depending on gateway version it
// arrives as a JSON number or a numeric string, both of which decode
// through json.Number.
type MarketDataSnapshotDTO struct {
	ConID     int         `json:"conid"`
	LastPrice json.Number `json:"31"`
	Updated   int64       `json:"_updated"`
}

func (dto *MarketDataSnapshotDTO) ToLastPrice() (float64, error) {
	if dto.LastPrice.String() == "" {
		return 0, ErrNoPriceAvailable
	}

	price, err := dto.LastPrice.Float64()
	if err != nil {
		return 0, fmt.Errorf("MarketDataSnapshotDTO: ToLastPrice: failed to parse price %q: %w", dto.LastPrice.String(), err)
	}

	return price, nil
}
