package eventmodels

import (
	"fmt"
	"strings"
	"time"
)

type OptionContractCsvDTO struct {
	ContractID      string `csv:"contract_id"`
	Symbol          string `csv:"symbol"`
	StrikePrice     string `csv:"strike_price"`
	MaturityDate    string `csv:"maturity_date"`
	ContractType    string `csv:"contract_type"`
	ExportTimestamp string `csv:"export_timestamp"`
}

func (c *OptionContract) ToCsvDTO(exportedAt time.Time) *OptionContractCsvDTO {
	return &OptionContractCsvDTO{
		ContractID:      c.ConID,
		Symbol:          c.UnderlyingSymbol.String(),
		StrikePrice:     fmt.Sprintf("%.2f", c.Strike),
		MaturityDate:    c.MaturityDate,
		ContractType:    strings.ToUpper(string(c.OptionType)),
		ExportTimestamp: exportedAt.Format(time.RFC3339),
	}
}
