package scheduling

import (
	"fmt"

	"github.com/yungbote/plantpal-backend/internal/types"
)

// EffectivePolicy is the fully resolved configuration governing whether and
// when a specific plant+category reminder may fire. Produced by Resolve, which
// is pure: same inputs, same output, no side effects.
type EffectivePolicy struct {
	Enabled  bool
	Category types.Category

	BaseFrequencyDays  int
	WeatherAware       bool
	SeasonalAdjust     bool
	AdvanceNoticeHours int
	CustomSchedule     *types.CustomSchedule

	MorningTime string
	EveningTime string

	QuietStart    string
	QuietEnd      string
	DNDStart      string
	DNDEnd        string
	PlantDNDStart string
	PlantDNDEnd   string

	DNDAllowUrgent       bool
	DNDAllowAchievements bool

	BatchSimilar    bool
	MaxPerHour      int
	MaxPerDay       int
	PlantMaxPerDay  int
	CooldownMinutes int

	PriorityDelivery bool
}

// categoryDefaults is the default table category settings inherit from when a
// plant policy does not override them.
var categoryDefaults = map[types.Category]types.CategorySetting{
	types.CategoryWatering:    {Enabled: true, BaseFrequencyDays: 3, WeatherAware: true, SeasonalAdjust: true, AdvanceNoticeHours: 2},
	types.CategoryFertilizer:  {Enabled: true, BaseFrequencyDays: 14, WeatherAware: false, SeasonalAdjust: true, AdvanceNoticeHours: 12},
	types.CategoryHealthCheck: {Enabled: true, BaseFrequencyDays: 7, WeatherAware: false, SeasonalAdjust: true, AdvanceNoticeHours: 12},
	types.CategoryAchievement: {Enabled: true},
	types.CategoryAlert:       {Enabled: true},
	types.CategorySystem:      {Enabled: true},
}

// hardFallback is the last resort when a category is known to the closed set
// but carries no default. Disabled, so it never schedules.
var hardFallback = types.CategorySetting{Enabled: false}

// Resolve merges the global and per-plant policies into the effective policy
// for one (plant, category) pair. Precedence: plant category setting over the
// category default over the hard fallback. Enabled is AND-ed across every
// level: any false short-circuits to "do not schedule". An unknown category
// resolves to a disabled policy rather than an error.
func Resolve(category types.Category, global *types.GlobalPolicy, plant *types.PlantPolicy) EffectivePolicy {
	out := EffectivePolicy{Category: category}
	if global == nil || !category.Valid() {
		return out
	}

	setting, ok := categoryDefaults[category]
	if !ok {
		setting = hardFallback
	}
	if plant != nil {
		if s, ok := plant.CategorySettings()[category]; ok {
			setting = s
		}
	}

	enabled := global.Enabled && setting.Enabled
	toggles := global.CategoryEnabled()
	if v, ok := toggles[category]; ok && !v {
		enabled = false
	}
	if plant != nil {
		if !plant.Enabled || plant.DeliveryBlocked {
			enabled = false
		}
	}
	out.Enabled = enabled

	out.BaseFrequencyDays = setting.BaseFrequencyDays
	out.WeatherAware = setting.WeatherAware && global.WeatherIntegration
	out.SeasonalAdjust = setting.SeasonalAdjust && global.SeasonalAdjustment
	out.AdvanceNoticeHours = setting.AdvanceNoticeHours
	out.CustomSchedule = setting.CustomSchedule

	out.MorningTime = global.MorningStart
	out.EveningTime = global.EveningStart
	if plant != nil {
		if plant.MorningTime != "" {
			out.MorningTime = plant.MorningTime
		}
		if plant.EveningTime != "" {
			out.EveningTime = plant.EveningTime
		}
		out.PlantDNDStart = plant.DNDStart
		out.PlantDNDEnd = plant.DNDEnd
		out.BatchSimilar = plant.BatchSimilar && global.Batching && category.Batchable()
		out.PlantMaxPerDay = plant.MaxPerDay
	} else {
		out.BatchSimilar = global.Batching && category.Batchable()
	}

	out.QuietStart = global.QuietHoursStart
	out.QuietEnd = global.QuietHoursEnd
	out.DNDStart = global.DNDStart
	out.DNDEnd = global.DNDEnd
	out.DNDAllowUrgent = global.DNDAllowUrgent
	out.DNDAllowAchievements = global.DNDAllowAchievements

	out.MaxPerHour = global.MaxPerHour
	out.MaxPerDay = global.MaxPerDay
	out.CooldownMinutes = global.CooldownMinutes
	out.PriorityDelivery = global.PriorityDelivery

	return out
}

// ValidateGlobalPolicy rejects malformed global policies at update time so the
// live policy is never silently defaulted.
func ValidateGlobalPolicy(p *types.GlobalPolicy) error {
	if p == nil {
		return fmt.Errorf("policy required")
	}
	clockFields := map[string]string{
		"quiet_hours_start": p.QuietHoursStart,
		"quiet_hours_end":   p.QuietHoursEnd,
		"morning_start":     p.MorningStart,
		"morning_end":       p.MorningEnd,
		"evening_start":     p.EveningStart,
		"evening_end":       p.EveningEnd,
		"dnd_start":         p.DNDStart,
		"dnd_end":           p.DNDEnd,
	}
	for field, val := range clockFields {
		if val == "" {
			continue
		}
		if _, ok := parseClock(val); !ok {
			return fmt.Errorf("invalid %s: %q is not HH:MM", field, val)
		}
	}
	if (p.QuietHoursStart == "") != (p.QuietHoursEnd == "") {
		return fmt.Errorf("quiet hours require both start and end")
	}
	if (p.DNDStart == "") != (p.DNDEnd == "") {
		return fmt.Errorf("dnd window requires both start and end")
	}
	if p.MaxPerHour < 1 {
		return fmt.Errorf("max_per_hour must be at least 1")
	}
	if p.MaxPerDay < 1 {
		return fmt.Errorf("max_per_day must be at least 1")
	}
	if p.CooldownMinutes < 0 {
		return fmt.Errorf("cooldown_minutes must not be negative")
	}
	for cat := range p.CategoryEnabled() {
		if !cat.Valid() {
			return fmt.Errorf("unknown category %q", cat)
		}
	}
	return nil
}

// ValidatePlantPolicy rejects malformed plant policies, including unknown
// category keys, before they can reach calculation.
func ValidatePlantPolicy(p *types.PlantPolicy) error {
	if p == nil {
		return fmt.Errorf("policy required")
	}
	for field, val := range map[string]string{
		"dnd_start":    p.DNDStart,
		"dnd_end":      p.DNDEnd,
		"morning_time": p.MorningTime,
		"evening_time": p.EveningTime,
	} {
		if val == "" {
			continue
		}
		if _, ok := parseClock(val); !ok {
			return fmt.Errorf("invalid %s: %q is not HH:MM", field, val)
		}
	}
	if (p.DNDStart == "") != (p.DNDEnd == "") {
		return fmt.Errorf("dnd window requires both start and end")
	}
	if p.MaxPerDay < 0 {
		return fmt.Errorf("max_per_day must not be negative")
	}
	for cat, setting := range p.CategorySettings() {
		if !cat.Valid() {
			return fmt.Errorf("unknown category %q", cat)
		}
		if setting.Enabled && setting.BaseFrequencyDays < 1 {
			switch cat {
			case types.CategoryWatering, types.CategoryFertilizer, types.CategoryHealthCheck:
				return fmt.Errorf("%s: base_frequency_days must be at least 1", cat)
			}
		}
		if setting.AdvanceNoticeHours < 0 {
			return fmt.Errorf("%s: advance_notice_hours must not be negative", cat)
		}
		if cs := setting.CustomSchedule; cs != nil {
			if len(cs.Weekdays) == 0 {
				return fmt.Errorf("%s: custom_schedule requires at least one weekday", cat)
			}
			for _, wd := range cs.Weekdays {
				if wd < 0 || wd > 6 {
					return fmt.Errorf("%s: invalid weekday %d", cat, wd)
				}
			}
			if _, ok := parseClock(cs.Time); !ok {
				return fmt.Errorf("%s: custom_schedule time %q is not HH:MM", cat, cs.Time)
			}
		}
	}
	return nil
}
