package scheduling

import (
	"testing"
	"time"

	"github.com/yungbote/plantpal-backend/internal/types"
)

var cadenceNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func wateringPolicy() EffectivePolicy {
	return EffectivePolicy{
		Enabled:           true,
		Category:          types.CategoryWatering,
		BaseFrequencyDays: 3,
		WeatherAware:      true,
		SeasonalAdjust:    false,
	}
}

func freshWeather() *types.WeatherContext {
	return &types.WeatherContext{
		TemperatureC: 22,
		Humidity:     50,
		Season:       types.SeasonSummer,
		LastUpdated:  cadenceNow.Add(-30 * time.Minute),
	}
}

func TestNextDue_NeverLoggedMeansDueNow(t *testing.T) {
	res := NextDue(CadenceInput{Policy: wateringPolicy(), Now: cadenceNow})
	if !res.DueAt.Equal(cadenceNow) {
		t.Fatalf("expected due now, got %v", res.DueAt)
	}
}

func TestNextDue_BaseInterval(t *testing.T) {
	last := cadenceNow.Add(-24 * time.Hour)
	res := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         wateringPolicy(),
		Weather:        freshWeather(),
		WeatherTTL:     3 * time.Hour,
		Now:            cadenceNow,
	})
	want := last.Add(3 * 24 * time.Hour)
	if !res.DueAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, res.DueAt)
	}
	if res.WeatherDeferred {
		t.Fatalf("clear weather must not defer")
	}
}

func TestNextDue_RainDefersExactlyOneDay(t *testing.T) {
	last := cadenceNow.Add(-24 * time.Hour)
	w := freshWeather()
	w.IsRaining = true

	base := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         wateringPolicy(),
		Weather:        freshWeather(),
		WeatherTTL:     3 * time.Hour,
		Now:            cadenceNow,
	})
	deferred := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         wateringPolicy(),
		Weather:        w,
		WeatherTTL:     3 * time.Hour,
		Now:            cadenceNow,
	})
	if got := deferred.DueAt.Sub(base.DueAt); got != 24*time.Hour {
		t.Fatalf("rain must defer exactly one day, got %v", got)
	}
	if !deferred.WeatherDeferred {
		t.Fatalf("expected WeatherDeferred flag")
	}
}

func TestNextDue_RainDeferCapStopsDeferring(t *testing.T) {
	last := cadenceNow.Add(-24 * time.Hour)
	w := freshWeather()
	w.PrecipitationMM = 12

	res := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         wateringPolicy(),
		Weather:        w,
		WeatherTTL:     3 * time.Hour,
		DeferCount:     maxWeatherDeferrals,
		Now:            cadenceNow,
	})
	want := last.Add(3 * 24 * time.Hour)
	if !res.DueAt.Equal(want) {
		t.Fatalf("at the deferral cap the base interval must apply, got %v", res.DueAt)
	}
	if res.WeatherDeferred {
		t.Fatalf("capped deferral must not set the flag")
	}
}

func TestNextDue_HeatPullsInOneDay(t *testing.T) {
	last := cadenceNow.Add(-24 * time.Hour)
	w := freshWeather()
	w.TemperatureC = 38

	res := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         wateringPolicy(),
		Weather:        w,
		WeatherTTL:     3 * time.Hour,
		Now:            cadenceNow,
	})
	want := last.Add(2 * 24 * time.Hour)
	if !res.DueAt.Equal(want) {
		t.Fatalf("heat must pull the due date in one day, got %v", res.DueAt)
	}
}

func TestNextDue_PullInNeverGoesBelowOneDay(t *testing.T) {
	last := cadenceNow.Add(-24 * time.Hour)
	pol := wateringPolicy()
	pol.BaseFrequencyDays = 1
	w := freshWeather()
	w.Humidity = 10

	res := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         pol,
		Weather:        w,
		WeatherTTL:     3 * time.Hour,
		Now:            cadenceNow,
	})
	want := last.Add(24 * time.Hour)
	if !res.DueAt.Equal(want) {
		t.Fatalf("interval must never drop below one day, got %v", res.DueAt)
	}
}

func TestNextDue_StaleWeatherIgnored(t *testing.T) {
	last := cadenceNow.Add(-24 * time.Hour)
	w := freshWeather()
	w.IsRaining = true
	w.LastUpdated = cadenceNow.Add(-6 * time.Hour)

	res := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         wateringPolicy(),
		Weather:        w,
		WeatherTTL:     3 * time.Hour,
		Now:            cadenceNow,
	})
	want := last.Add(3 * 24 * time.Hour)
	if !res.DueAt.Equal(want) {
		t.Fatalf("stale weather must not adjust cadence, got %v", res.DueAt)
	}
	if res.WeatherDeferred {
		t.Fatalf("stale weather must not defer")
	}
}

func TestNextDue_SeasonalMultiplier(t *testing.T) {
	last := cadenceNow.Add(-24 * time.Hour)
	pol := wateringPolicy()
	pol.SeasonalAdjust = true
	pol.WeatherAware = false
	pol.BaseFrequencyDays = 4
	w := freshWeather()
	w.Season = types.SeasonWinter

	res := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         pol,
		Weather:        w,
		WeatherTTL:     3 * time.Hour,
		Seasonal:       DefaultSeasonalConfig(),
		Now:            cadenceNow,
	})
	// 4 days * 1.5 winter multiplier = 6 days.
	want := last.Add(6 * 24 * time.Hour)
	if !res.DueAt.Equal(want) {
		t.Fatalf("expected winter-stretched interval %v, got %v", want, res.DueAt)
	}
}

func TestNextDue_HealthCheckSeasonalOverride(t *testing.T) {
	last := cadenceNow.Add(-24 * time.Hour)
	pol := EffectivePolicy{
		Enabled:           true,
		Category:          types.CategoryHealthCheck,
		BaseFrequencyDays: 7,
		SeasonalAdjust:    true,
	}
	w := freshWeather()
	w.Season = types.SeasonSummer

	res := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         pol,
		Weather:        w,
		WeatherTTL:     3 * time.Hour,
		Seasonal:       DefaultSeasonalConfig(),
		Now:            cadenceNow,
	})
	// Summer overrides health checks to every 10 days.
	want := last.Add(10 * 24 * time.Hour)
	if !res.DueAt.Equal(want) {
		t.Fatalf("expected summer health-check override %v, got %v", want, res.DueAt)
	}
}

func TestNextDue_CustomScheduleWins(t *testing.T) {
	// cadenceNow is a Tuesday.
	last := cadenceNow.Add(-24 * time.Hour)
	pol := wateringPolicy()
	pol.CustomSchedule = &types.CustomSchedule{
		Weekdays: []time.Weekday{time.Friday},
		Time:     "09:00",
	}

	res := NextDue(CadenceInput{
		LastActivityAt: &last,
		Policy:         pol,
		Weather:        freshWeather(),
		WeatherTTL:     3 * time.Hour,
		Now:            cadenceNow,
	})
	if res.DueAt.Weekday() != time.Friday {
		t.Fatalf("expected Friday, got %v", res.DueAt.Weekday())
	}
	if res.DueAt.Hour() != 9 || res.DueAt.Minute() != 0 {
		t.Fatalf("expected 09:00, got %02d:%02d", res.DueAt.Hour(), res.DueAt.Minute())
	}
	if !res.DueAt.After(cadenceNow) {
		t.Fatalf("custom occurrence must be in the future")
	}
}

func TestNextDue_MonotonicInLastActivity(t *testing.T) {
	pol := wateringPolicy()
	w := freshWeather()
	earlier := cadenceNow.Add(-72 * time.Hour)
	later := cadenceNow.Add(-24 * time.Hour)

	a := NextDue(CadenceInput{LastActivityAt: &earlier, Policy: pol, Weather: w, WeatherTTL: 3 * time.Hour, Now: cadenceNow})
	b := NextDue(CadenceInput{LastActivityAt: &later, Policy: pol, Weather: w, WeatherTTL: 3 * time.Hour, Now: cadenceNow})
	if a.DueAt.After(b.DueAt) {
		t.Fatalf("later activity must never produce an earlier due date: %v > %v", a.DueAt, b.DueAt)
	}
}
