package eventmodels

import "time"

type Tick struct {
	ConID     int       `json:"conid"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

func NewTick(conID int, timestamp time.Time, price float64) *Tick {
	return &Tick{
		ConID:     conID,
		Timestamp: timestamp,
		Price:     price,
	}
}
