package scheduling

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/types"
)

func testGlobalPolicy() *types.GlobalPolicy {
	p := &types.GlobalPolicy{
		Enabled:            true,
		QuietHoursStart:    "22:00",
		QuietHoursEnd:      "06:00",
		MorningStart:       "08:00",
		EveningStart:       "18:00",
		DNDAllowUrgent:     true,
		MaxPerHour:         3,
		MaxPerDay:          10,
		CooldownMinutes:    30,
		WeatherIntegration: true,
		SeasonalAdjustment: true,
		Batching:           true,
		PriorityDelivery:   true,
	}
	p.SetCategoryEnabled(map[types.Category]bool{types.CategoryWatering: true})
	return p
}

func TestResolve_DefaultsWhenNoPlantPolicy(t *testing.T) {
	pol := Resolve(types.CategoryWatering, testGlobalPolicy(), nil)
	if !pol.Enabled {
		t.Fatalf("expected watering enabled by default")
	}
	if pol.BaseFrequencyDays != 3 {
		t.Fatalf("expected default watering frequency 3, got %d", pol.BaseFrequencyDays)
	}
	if !pol.WeatherAware {
		t.Fatalf("expected watering weather-aware by default")
	}
	if pol.MorningTime != "08:00" || pol.EveningTime != "18:00" {
		t.Fatalf("expected global preferred times, got %q / %q", pol.MorningTime, pol.EveningTime)
	}
}

func TestResolve_PlantSettingOverridesDefault(t *testing.T) {
	plant := &types.PlantPolicy{PlantID: uuid.New(), Enabled: true, BatchSimilar: true}
	plant.SetCategorySettings(map[types.Category]types.CategorySetting{
		types.CategoryWatering: {Enabled: true, BaseFrequencyDays: 5, WeatherAware: false},
	})
	pol := Resolve(types.CategoryWatering, testGlobalPolicy(), plant)
	if pol.BaseFrequencyDays != 5 {
		t.Fatalf("expected plant frequency 5, got %d", pol.BaseFrequencyDays)
	}
	if pol.WeatherAware {
		t.Fatalf("plant disabled weather awareness, resolver kept it on")
	}
}

func TestResolve_EnabledIsANDedAcrossLevels(t *testing.T) {
	global := testGlobalPolicy()
	plant := &types.PlantPolicy{PlantID: uuid.New(), Enabled: true, BatchSimilar: true}
	plant.SetCategorySettings(map[types.Category]types.CategorySetting{
		types.CategoryWatering: {Enabled: true, BaseFrequencyDays: 3},
	})

	if pol := Resolve(types.CategoryWatering, global, plant); !pol.Enabled {
		t.Fatalf("expected enabled when every level agrees")
	}

	global.Enabled = false
	if pol := Resolve(types.CategoryWatering, global, plant); pol.Enabled {
		t.Fatalf("global disabled must win")
	}
	global.Enabled = true

	global.SetCategoryEnabled(map[types.Category]bool{types.CategoryWatering: false})
	if pol := Resolve(types.CategoryWatering, global, plant); pol.Enabled {
		t.Fatalf("global category toggle off must win")
	}
	global.SetCategoryEnabled(map[types.Category]bool{types.CategoryWatering: true})

	plant.Enabled = false
	if pol := Resolve(types.CategoryWatering, global, plant); pol.Enabled {
		t.Fatalf("plant disabled must win")
	}
	plant.Enabled = true

	plant.DeliveryBlocked = true
	if pol := Resolve(types.CategoryWatering, global, plant); pol.Enabled {
		t.Fatalf("delivery-blocked plant must resolve disabled")
	}
}

func TestResolve_UnknownCategoryDisabled(t *testing.T) {
	pol := Resolve(types.Category("pruning"), testGlobalPolicy(), nil)
	if pol.Enabled {
		t.Fatalf("unknown category must resolve to a disabled policy")
	}
}

func TestResolve_PlantDNDNarrowsNotWidens(t *testing.T) {
	global := testGlobalPolicy()
	global.DNDStart = "21:00"
	global.DNDEnd = "23:00"
	plant := &types.PlantPolicy{PlantID: uuid.New(), Enabled: true, BatchSimilar: true, DNDStart: "12:00", DNDEnd: "14:00"}

	pol := Resolve(types.CategoryWatering, global, plant)
	if pol.DNDStart != "21:00" || pol.DNDEnd != "23:00" {
		t.Fatalf("global DND must survive plant override")
	}
	if pol.PlantDNDStart != "12:00" || pol.PlantDNDEnd != "14:00" {
		t.Fatalf("plant DND must be carried alongside global")
	}
}

func TestValidateGlobalPolicy(t *testing.T) {
	good := testGlobalPolicy()
	if err := ValidateGlobalPolicy(good); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}

	bad := testGlobalPolicy()
	bad.QuietHoursStart = "25:00"
	if err := ValidateGlobalPolicy(bad); err == nil {
		t.Fatalf("expected rejection of 25:00")
	}

	bad = testGlobalPolicy()
	bad.DNDStart = "22:00"
	bad.DNDEnd = ""
	if err := ValidateGlobalPolicy(bad); err == nil {
		t.Fatalf("expected rejection of half-open dnd window")
	}

	bad = testGlobalPolicy()
	bad.MaxPerDay = 0
	if err := ValidateGlobalPolicy(bad); err == nil {
		t.Fatalf("expected rejection of max_per_day 0")
	}

	bad = testGlobalPolicy()
	bad.SetCategoryEnabled(map[types.Category]bool{types.Category("pruning"): true})
	if err := ValidateGlobalPolicy(bad); err == nil {
		t.Fatalf("expected rejection of unknown category toggle")
	}
}

func TestValidatePlantPolicy(t *testing.T) {
	good := &types.PlantPolicy{PlantID: uuid.New(), Enabled: true, BatchSimilar: true}
	good.SetCategorySettings(map[types.Category]types.CategorySetting{
		types.CategoryWatering: {Enabled: true, BaseFrequencyDays: 3},
	})
	if err := ValidatePlantPolicy(good); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}

	bad := &types.PlantPolicy{PlantID: uuid.New(), Enabled: true}
	bad.SetCategorySettings(map[types.Category]types.CategorySetting{
		types.Category("pruning"): {Enabled: true, BaseFrequencyDays: 3},
	})
	if err := ValidatePlantPolicy(bad); err == nil {
		t.Fatalf("expected rejection of unknown category")
	}

	bad = &types.PlantPolicy{PlantID: uuid.New(), Enabled: true}
	bad.SetCategorySettings(map[types.Category]types.CategorySetting{
		types.CategoryWatering: {Enabled: true, BaseFrequencyDays: 0},
	})
	if err := ValidatePlantPolicy(bad); err == nil {
		t.Fatalf("expected rejection of zero frequency")
	}

	bad = &types.PlantPolicy{PlantID: uuid.New(), Enabled: true}
	bad.SetCategorySettings(map[types.Category]types.CategorySetting{
		types.CategoryWatering: {
			Enabled:           true,
			BaseFrequencyDays: 3,
			CustomSchedule:    &types.CustomSchedule{Weekdays: nil, Time: "09:00"},
		},
	})
	if err := ValidatePlantPolicy(bad); err == nil {
		t.Fatalf("expected rejection of custom schedule with no weekdays")
	}
}
