package scheduling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yungbote/plantpal-backend/internal/types"
)

func TestDefaultSeasonalConfig_CoversEverySeason(t *testing.T) {
	cfg := DefaultSeasonalConfig()
	for _, season := range []types.Season{types.SeasonSpring, types.SeasonSummer, types.SeasonFall, types.SeasonWinter} {
		f, ok := cfg[season]
		if !ok {
			t.Fatalf("missing season %s", season)
		}
		if f.WateringMultiplier <= 0 || f.FertilizerMultiplier <= 0 || f.HealthCheckFrequencyDays < 1 {
			t.Fatalf("%s: invalid default factors %+v", season, f)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestSeasonalConfig_ValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		cfg  SeasonalConfig
	}{
		{"unknown season", SeasonalConfig{"monsoon": {WateringMultiplier: 1, FertilizerMultiplier: 1, HealthCheckFrequencyDays: 7}}},
		{"zero watering multiplier", SeasonalConfig{types.SeasonSummer: {WateringMultiplier: 0, FertilizerMultiplier: 1, HealthCheckFrequencyDays: 7}}},
		{"negative fertilizer multiplier", SeasonalConfig{types.SeasonSummer: {WateringMultiplier: 1, FertilizerMultiplier: -2, HealthCheckFrequencyDays: 7}}},
		{"zero health check days", SeasonalConfig{types.SeasonSummer: {WateringMultiplier: 1, FertilizerMultiplier: 1, HealthCheckFrequencyDays: 0}}},
	}
	for _, c := range cases {
		if err := c.cfg.Validate(); err == nil {
			t.Fatalf("%s: expected a validation error", c.name)
		}
	}
}

func TestLoadSeasonalConfig_EmptyPathFallsBack(t *testing.T) {
	cfg, err := LoadSeasonalConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg) != 4 {
		t.Fatalf("expected the 4 default seasons, got %d", len(cfg))
	}
}

func TestLoadSeasonalConfig_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seasonal.yaml")
	doc := `winter:
  watering_multiplier: 2.0
  fertilizer_multiplier: 3.0
  health_check_frequency_days: 30
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadSeasonalConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f, ok := cfg[types.SeasonWinter]
	if !ok {
		t.Fatalf("winter missing from parsed config")
	}
	if f.WateringMultiplier != 2.0 || f.FertilizerMultiplier != 3.0 || f.HealthCheckFrequencyDays != 30 {
		t.Fatalf("unexpected factors %+v", f)
	}
}

func TestLoadSeasonalConfig_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seasonal.yaml")
	doc := `winter:
  watering_multiplier: -1
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSeasonalConfig(path); err == nil {
		t.Fatalf("expected a validation error")
	}
}
