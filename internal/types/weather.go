package types

import "time"

// WeatherContext is a read-mostly snapshot from the weather provider. Staleness
// beyond the configured TTL disables weather-aware adjustments for an
// evaluation instead of erroring.
type WeatherContext struct {
	TemperatureC    float64   `json:"temperature_c"`
	Humidity        float64   `json:"humidity"`
	PrecipitationMM float64   `json:"precipitation_mm"`
	IsRaining       bool      `json:"is_raining"`
	UVIndex         float64   `json:"uv_index"`
	WindSpeed       float64   `json:"wind_speed"`
	Season          Season    `json:"season"`
	LastUpdated     time.Time `json:"last_updated"`
}

func (w *WeatherContext) Fresh(ttl time.Duration, now time.Time) bool {
	if w == nil || w.LastUpdated.IsZero() {
		return false
	}
	return now.Sub(w.LastUpdated) <= ttl
}

// SeasonFactors adjust cadence per season. Multipliers scale the base interval
// (1.0 means no adjustment); HealthCheckFrequencyDays replaces the health-check
// interval outright.
type SeasonFactors struct {
	WateringMultiplier       float64 `yaml:"watering_multiplier" json:"watering_multiplier"`
	FertilizerMultiplier     float64 `yaml:"fertilizer_multiplier" json:"fertilizer_multiplier"`
	HealthCheckFrequencyDays int     `yaml:"health_check_frequency_days" json:"health_check_frequency_days"`
}
