package eventmodels

import (
	"encoding/json"
	"strings"
)

// SecDefSearchDTO is one element of the /iserver/secdef/search response.
type SecDefSearchDTO struct {
	ConID       json.Number        `json:"conid"`
	CompanyName string             `json:"companyName"`
	Description string             `json:"description"`
	Symbol      string             `json:"symbol"`
	Sections    []SecDefSectionDTO `json:"sections"`
}

type SecDefSectionDTO struct {
	SecType  string `json:"secType"`
	Months   string `json:"months"`
	Exchange string `json:"exchange"`
}

// OptionMonths extracts the expiration months advertised in the OPT
// section. The gateway packs them into a single semicolon-separated
// string, e.g. "JAN26;FEB26;MAR26".
func (dto *SecDefSearchDTO) OptionMonths() []string {
	for _, section := range dto.Sections {
		if section.SecType != "OPT" {
			continue
		}

		if section.Months == "" {
			return nil
		}

		var months []string
		for _, month := range strings.Split(section.Months, ";") {
			month = strings.TrimSpace(month)
			if month != "" {
				months = append(months, month)
			}
		}

		return months
	}

	return nil
}
