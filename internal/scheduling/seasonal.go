package scheduling

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/plantpal-backend/internal/types"
)

// SeasonalConfig maps a season to its cadence adjustment factors.
type SeasonalConfig map[types.Season]types.SeasonFactors

// DefaultSeasonalConfig reflects typical houseplant care: water more in summer
// heat, much less in winter dormancy, inspect more often in the growing season.
func DefaultSeasonalConfig() SeasonalConfig {
	return SeasonalConfig{
		types.SeasonSpring: {WateringMultiplier: 1.0, FertilizerMultiplier: 1.0, HealthCheckFrequencyDays: 14},
		types.SeasonSummer: {WateringMultiplier: 0.7, FertilizerMultiplier: 0.8, HealthCheckFrequencyDays: 10},
		types.SeasonFall:   {WateringMultiplier: 1.2, FertilizerMultiplier: 1.5, HealthCheckFrequencyDays: 14},
		types.SeasonWinter: {WateringMultiplier: 1.5, FertilizerMultiplier: 2.0, HealthCheckFrequencyDays: 21},
	}
}

// LoadSeasonalConfig reads a YAML seasonal table from path, falling back to
// the defaults when path is empty. Multipliers must be positive.
func LoadSeasonalConfig(path string) (SeasonalConfig, error) {
	if path == "" {
		return DefaultSeasonalConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seasonal config: %w", err)
	}
	var cfg SeasonalConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse seasonal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c SeasonalConfig) Validate() error {
	for season, f := range c {
		if !season.Valid() {
			return fmt.Errorf("unknown season %q", season)
		}
		if f.WateringMultiplier <= 0 {
			return fmt.Errorf("%s: watering_multiplier must be positive", season)
		}
		if f.FertilizerMultiplier <= 0 {
			return fmt.Errorf("%s: fertilizer_multiplier must be positive", season)
		}
		if f.HealthCheckFrequencyDays < 1 {
			return fmt.Errorf("%s: health_check_frequency_days must be at least 1", season)
		}
	}
	return nil
}
