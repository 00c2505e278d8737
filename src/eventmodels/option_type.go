package eventmodels

import (
	"fmt"
	"strings"
)

type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

func (o OptionType) Validate() error {
	if o != OptionTypeCall && o != OptionTypePut {
		return fmt.Errorf("OptionType: Validate: invalid option type: %s", o)
	}

	return nil
}

// Right returns the single-letter right code the gateway expects.
func (o OptionType) Right() string {
	if o == OptionTypeCall {
		return "C"
	}

	return "P"
}

// NewOptionTypeFromRight accepts the gateway right codes P, C, PUT and CALL.
func NewOptionTypeFromRight(right string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(right)) {
	case "P", "PUT":
		return OptionTypePut, nil
	case "C", "CALL":
		return OptionTypeCall, nil
	default:
		return "", fmt.Errorf("NewOptionTypeFromRight: invalid right: %s", right)
	}
}
