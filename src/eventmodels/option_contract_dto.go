package eventmodels

import (
	"encoding/json"
	"fmt"
)

// OptionContractDTO is one element of the /iserver/secdef/info response.
type OptionContractDTO struct {
	ConID        json.Number `json:"conid"`
	Symbol       string      `json:"symbol"`
	Strike       json.Number `json:"strike"`
	MaturityDate string      `json:"maturityDate"`
	Right        string      `json:"right"`
	TradingClass string      `json:"tradingClass"`
}

func (dto *OptionContractDTO) ToModel(underlying StockSymbol, fallbackRight OptionType) (*OptionContract, error) {
	strike, err := dto.Strike.Float64()
	if err != nil {
		return nil, fmt.Errorf("OptionContractDTO: ToModel: failed to parse strike %q: %w", dto.Strike.String(), err)
	}

	optionType := fallbackRight
	if dto.Right != "" {
		optionType, err = NewOptionTypeFromRight(dto.Right)
		if err != nil {
			return nil, fmt.Errorf("OptionContractDTO: ToModel: %w", err)
		}
	}

	symbol := underlying
	if dto.Symbol != "" {
		symbol = NewStockSymbol(dto.Symbol)
	}

	contract := &OptionContract{
		ConID:            dto.ConID.String(),
		UnderlyingSymbol: symbol,
		Strike:           strike,
		MaturityDate:     dto.MaturityDate,
		OptionType:       optionType,
	}

	if err := contract.Validate(); err != nil {
		return nil, err
	}

	return contract, nil
}
