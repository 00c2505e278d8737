package eventmodels

type OptionContract struct {
	ConID            string      `json:"conid"`
	UnderlyingSymbol StockSymbol `json:"underlying_symbol"`
	Strike           float64     `json:"strike"`
	MaturityDate     string      `json:"maturity_date"`
	OptionType       OptionType  `json:"option_type"`
}

func (c *OptionContract) Validate() error {
	if c.ConID == "" {
		return NewDataValidationError("contract id cannot be empty")
	}

	if c.Strike <= 0 {
		return NewDataValidationError("strike price must be positive, got %.2f", c.Strike)
	}

	if err := c.OptionType.Validate(); err != nil {
		return NewDataValidationError("invalid option type: %s", c.OptionType)
	}

	return nil
}
