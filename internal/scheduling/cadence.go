package scheduling

import (
	"math"
	"time"

	"github.com/yungbote/plantpal-backend/internal/types"
)

const (
	// Rain within the lookahead defers watering when precipitation reaches
	// this level (or the provider flags active rain).
	rainPrecipThresholdMM = 5.0
	// High heat pulls the due date closer.
	heatThresholdC = 35.0
	// Very low humidity pulls the due date closer.
	dryHumidityThreshold = 25.0
	// A watering reminder is never rain-deferred more than this many cycles in
	// a row, so weather can't suppress it permanently.
	maxWeatherDeferrals = 2
)

// CadenceInput carries everything NextDue needs. The evaluation time is passed
// in explicitly so the calculation is deterministic.
type CadenceInput struct {
	LastActivityAt *time.Time
	Policy         EffectivePolicy
	Weather        *types.WeatherContext
	WeatherTTL     time.Duration
	Seasonal       SeasonalConfig
	// Consecutive rain deferrals already applied for this plant+category.
	DeferCount int
	Now        time.Time
}

type CadenceResult struct {
	DueAt time.Time
	// WeatherDeferred is set when rain pushed the due date forward; the caller
	// persists the incremented deferral count.
	WeatherDeferred bool
}

// NextDue turns the base frequency plus weather and season context into the
// next due timestamp. Never logged means due now.
func NextDue(in CadenceInput) CadenceResult {
	if in.LastActivityAt == nil {
		return CadenceResult{DueAt: in.Now}
	}
	last := *in.LastActivityAt

	if cs := in.Policy.CustomSchedule; cs != nil {
		return CadenceResult{DueAt: nextCustomOccurrence(last, cs, in.Now)}
	}

	intervalDays := in.Policy.BaseFrequencyDays
	if intervalDays < 1 {
		intervalDays = 1
	}

	if in.Policy.SeasonalAdjust && in.Weather != nil && in.Seasonal != nil {
		if factors, ok := in.Seasonal[in.Weather.Season]; ok {
			intervalDays = seasonalInterval(in.Policy.Category, intervalDays, factors)
		}
	}

	weatherFresh := in.Weather.Fresh(in.WeatherTTL, in.Now)
	deferred := false
	if in.Policy.WeatherAware && weatherFresh {
		w := in.Weather
		rainExpected := w.IsRaining || w.PrecipitationMM >= rainPrecipThresholdMM
		if in.Policy.Category == types.CategoryWatering && rainExpected && in.DeferCount < maxWeatherDeferrals {
			intervalDays++
			deferred = true
		} else if w.TemperatureC > heatThresholdC || w.Humidity < dryHumidityThreshold {
			if intervalDays > 1 {
				intervalDays--
			}
		}
	}

	return CadenceResult{
		DueAt:           last.Add(time.Duration(intervalDays) * 24 * time.Hour),
		WeatherDeferred: deferred,
	}
}

// seasonalInterval applies the season's factor for the category: multipliers
// for watering and fertilizer (rounded to whole days, minimum 1), a direct
// frequency override for health checks.
func seasonalInterval(category types.Category, baseDays int, f types.SeasonFactors) int {
	switch category {
	case types.CategoryWatering:
		return roundDays(float64(baseDays) * f.WateringMultiplier)
	case types.CategoryFertilizer:
		return roundDays(float64(baseDays) * f.FertilizerMultiplier)
	case types.CategoryHealthCheck:
		if f.HealthCheckFrequencyDays >= 1 {
			return f.HealthCheckFrequencyDays
		}
	}
	return baseDays
}

func roundDays(days float64) int {
	rounded := int(math.Round(days))
	if rounded < 1 {
		return 1
	}
	return rounded
}

// nextCustomOccurrence finds the first configured weekday/time strictly after
// the baseline activity (or now, whichever is later).
func nextCustomOccurrence(last time.Time, cs *types.CustomSchedule, now time.Time) time.Time {
	minutes, ok := parseClock(cs.Time)
	if !ok {
		minutes = 9 * 60
	}
	from := last
	if now.After(from) {
		from = now
	}
	allowed := map[time.Weekday]bool{}
	for _, wd := range cs.Weekdays {
		allowed[wd] = true
	}
	if len(allowed) == 0 {
		return from
	}
	candidate := time.Date(from.Year(), from.Month(), from.Day(), minutes/60, minutes%60, 0, 0, from.Location())
	for i := 0; i < 8; i++ {
		if candidate.After(from) && allowed[candidate.Weekday()] {
			return candidate
		}
		candidate = candidate.Add(24 * time.Hour)
	}
	return candidate
}
