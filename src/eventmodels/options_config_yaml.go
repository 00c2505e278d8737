package eventmodels

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type OptionsJobYAML struct {
	Symbol     string  `yaml:"symbol"`
	Exchange   string  `yaml:"exchange"`
	PriceRange float64 `yaml:"price_range"`
	Right      string  `yaml:"right"`
	Month      string  `yaml:"month"`
}

func (j *OptionsJobYAML) Validate() error {
	if j.Symbol == "" {
		return fmt.Errorf("OptionsJobYAML: Validate: symbol is required")
	}

	if j.Exchange == "" {
		return fmt.Errorf("OptionsJobYAML: Validate: exchange is required")
	}

	if j.PriceRange <= 0 {
		return fmt.Errorf("OptionsJobYAML: Validate: price_range must be positive, got %.2f", j.PriceRange)
	}

	if _, err := NewOptionTypeFromRight(j.Right); err != nil {
		return fmt.Errorf("OptionsJobYAML: Validate: %w", err)
	}

	return nil
}

func (j *OptionsJobYAML) OptionType() OptionType {
	optionType, err := NewOptionTypeFromRight(j.Right)
	if err != nil {
		return OptionTypePut
	}

	return optionType
}

type OptionsConfigYAML struct {
	Jobs []OptionsJobYAML `yaml:"jobs"`
}

func LoadOptionsConfig(path string) (*OptionsConfigYAML, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadOptionsConfig: failed to read %s: %w", path, err)
	}

	var config OptionsConfigYAML
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("LoadOptionsConfig: failed to unmarshal %s: %w", path, err)
	}

	if len(config.Jobs) == 0 {
		return nil, fmt.Errorf("LoadOptionsConfig: no jobs defined in %s", path)
	}

	for i := range config.Jobs {
		if err := config.Jobs[i].Validate(); err != nil {
			return nil, fmt.Errorf("LoadOptionsConfig: job %d: %w", i, err)
		}
	}

	return &config, nil
}
