package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GlobalPolicy is the process-wide notification policy. There is exactly one
// row; it is loaded at scheduler start and mutated only through the validated
// update path, which re-evaluates every pending schedule.
type GlobalPolicy struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Enabled bool      `gorm:"not null;default:true;column:enabled" json:"enabled"`

	// Per-category enable flags, keyed by Category.
	CategoriesJSON datatypes.JSON `gorm:"column:categories;type:jsonb" json:"categories"`

	// Quiet hours, HH:MM wall clock, may wrap midnight.
	QuietHoursStart string `gorm:"column:quiet_hours_start" json:"quiet_hours_start"`
	QuietHoursEnd   string `gorm:"column:quiet_hours_end" json:"quiet_hours_end"`

	// Preferred delivery windows.
	MorningStart string `gorm:"column:morning_start" json:"morning_start"`
	MorningEnd   string `gorm:"column:morning_end" json:"morning_end"`
	EveningStart string `gorm:"column:evening_start" json:"evening_start"`
	EveningEnd   string `gorm:"column:evening_end" json:"evening_end"`

	// Global DND window with escape hatches.
	DNDStart             string `gorm:"column:dnd_start" json:"dnd_start"`
	DNDEnd               string `gorm:"column:dnd_end" json:"dnd_end"`
	DNDAllowUrgent       bool   `gorm:"not null;default:true;column:dnd_allow_urgent" json:"dnd_allow_urgent"`
	DNDAllowAchievements bool   `gorm:"not null;default:false;column:dnd_allow_achievements" json:"dnd_allow_achievements"`

	// Quota limits.
	MaxPerHour      int `gorm:"not null;default:3;column:max_per_hour" json:"max_per_hour"`
	MaxPerDay       int `gorm:"not null;default:10;column:max_per_day" json:"max_per_day"`
	CooldownMinutes int `gorm:"not null;default:30;column:cooldown_minutes" json:"cooldown_minutes"`

	// Smart-scheduling toggles.
	WeatherIntegration bool `gorm:"not null;default:true;column:weather_integration" json:"weather_integration"`
	SeasonalAdjustment bool `gorm:"not null;default:true;column:seasonal_adjustment" json:"seasonal_adjustment"`
	Batching           bool `gorm:"not null;default:true;column:batching" json:"batching"`
	PriorityDelivery   bool `gorm:"not null;default:true;column:priority_delivery" json:"priority_delivery"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (GlobalPolicy) TableName() string {
	return "global_policy"
}

func (p *GlobalPolicy) CategoryEnabled() map[Category]bool {
	return DecodeCategoryToggles(p.CategoriesJSON)
}

func (p *GlobalPolicy) SetCategoryEnabled(m map[Category]bool) {
	p.CategoriesJSON = EncodeCategoryToggles(m)
}

func DecodeCategoryToggles(raw datatypes.JSON) map[Category]bool {
	out := map[Category]bool{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func EncodeCategoryToggles(m map[Category]bool) datatypes.JSON {
	if m == nil {
		m = map[Category]bool{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}

// CategorySetting is the per-activity-category knob set carried on a plant
// policy. Categories absent from the plant policy inherit the category default
// table in the resolver.
type CategorySetting struct {
	Enabled            bool            `json:"enabled"`
	BaseFrequencyDays  int             `json:"base_frequency_days"`
	WeatherAware       bool            `json:"weather_aware"`
	SeasonalAdjust     bool            `json:"seasonal_adjust"`
	AdvanceNoticeHours int             `json:"advance_notice_hours"`
	CustomSchedule     *CustomSchedule `json:"custom_schedule,omitempty"`
}

// CustomSchedule pins reminders to fixed weekdays instead of a rolling
// interval. Time is HH:MM wall clock.
type CustomSchedule struct {
	Weekdays []time.Weekday `json:"weekdays"`
	Time     string         `json:"time"`
}

// PlantPolicy is the per-plant override, keyed by plant id. It is meaningless
// without a GlobalPolicy; the resolver merges the two.
type PlantPolicy struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:plant_id" json:"plant_id"`
	Enabled bool      `gorm:"not null;default:true;column:enabled" json:"enabled"`

	// Category settings keyed by Category.
	SettingsJSON datatypes.JSON `gorm:"column:settings;type:jsonb" json:"settings"`

	// Plant-level DND override. Narrows the global allowance, never widens it.
	DNDStart string `gorm:"column:dnd_start" json:"dnd_start"`
	DNDEnd   string `gorm:"column:dnd_end" json:"dnd_end"`

	MorningTime string `gorm:"column:morning_time" json:"morning_time"`
	EveningTime string `gorm:"column:evening_time" json:"evening_time"`

	BatchSimilar bool `gorm:"not null;default:true;column:batch_similar" json:"batch_similar"`
	MaxPerDay    int  `gorm:"not null;default:0;column:max_per_day" json:"max_per_day"`

	// Set when the transport reports a permanent error (permission revoked).
	// Scheduling for this plant stays off until the flag is cleared.
	DeliveryBlocked bool `gorm:"not null;default:false;column:delivery_blocked" json:"delivery_blocked"`

	// Consecutive weather deferrals per category, reset on delivery. Caps the
	// rain push-forward so a reminder is never suppressed indefinitely.
	WeatherDeferJSON datatypes.JSON `gorm:"column:weather_defer;type:jsonb" json:"weather_defer"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (PlantPolicy) TableName() string {
	return "plant_policy"
}

func (p *PlantPolicy) CategorySettings() map[Category]CategorySetting {
	return DecodeCategorySettings(p.SettingsJSON)
}

func (p *PlantPolicy) SetCategorySettings(m map[Category]CategorySetting) {
	p.SettingsJSON = EncodeCategorySettings(m)
}

func (p *PlantPolicy) WeatherDefer() map[Category]int {
	out := map[Category]int{}
	if p == nil || len(p.WeatherDeferJSON) == 0 {
		return out
	}
	_ = json.Unmarshal(p.WeatherDeferJSON, &out)
	return out
}

func (p *PlantPolicy) SetWeatherDefer(m map[Category]int) {
	if m == nil {
		m = map[Category]int{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		p.WeatherDeferJSON = datatypes.JSON([]byte("{}"))
		return
	}
	p.WeatherDeferJSON = datatypes.JSON(b)
}

func DecodeCategorySettings(raw datatypes.JSON) map[Category]CategorySetting {
	out := map[Category]CategorySetting{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func EncodeCategorySettings(m map[Category]CategorySetting) datatypes.JSON {
	if m == nil {
		m = map[Category]CategorySetting{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(b)
}
