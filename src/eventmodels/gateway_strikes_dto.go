package eventmodels

// StrikesDTO is the /iserver/secdef/strikes response. Call and put
// strike lists normally match; the put list is the one we read.
type StrikesDTO struct {
	Call []float64 `json:"call"`
	Put  []float64 `json:"put"`
}
