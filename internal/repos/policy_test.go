package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/types"
)

func TestPolicyRepo_GetGlobalNotFound(t *testing.T) {
	repo := NewPolicyRepo(newTestDB(t), newTestLogger(t))
	if _, err := repo.GetGlobal(context.Background(), nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on an empty table, got %v", err)
	}
}

func TestPolicyRepo_UpsertGlobalRoundTrip(t *testing.T) {
	repo := NewPolicyRepo(newTestDB(t), newTestLogger(t))
	policy := &types.GlobalPolicy{
		ID:              uuid.New(),
		Enabled:         true,
		QuietHoursStart: "22:00",
		QuietHoursEnd:   "07:00",
		MaxPerHour:      3,
		MaxPerDay:       10,
		CooldownMinutes: 30,
	}
	policy.SetCategoryEnabled(map[types.Category]bool{types.CategoryWatering: true})

	if err := repo.UpsertGlobal(context.Background(), nil, policy); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.GetGlobal(context.Background(), nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QuietHoursStart != "22:00" || got.MaxPerDay != 10 {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if !got.CategoryEnabled()[types.CategoryWatering] {
		t.Fatalf("category toggles lost in round trip")
	}

	got.MaxPerDay = 5
	if err := repo.UpsertGlobal(context.Background(), nil, got); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	again, err := repo.GetGlobal(context.Background(), nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.ID != policy.ID || again.MaxPerDay != 5 {
		t.Fatalf("update must keep the singleton row: %+v", again)
	}
}

func TestPolicyRepo_UpsertPlantPolicyPreservesIdentity(t *testing.T) {
	repo := NewPolicyRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	first := &types.PlantPolicy{ID: uuid.New(), PlantID: plantID, Enabled: true, BatchSimilar: true}
	first.SetCategorySettings(map[types.Category]types.CategorySetting{
		types.CategoryWatering: {Enabled: true, BaseFrequencyDays: 3},
	})
	if err := repo.UpsertPlantPolicy(context.Background(), nil, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := &types.PlantPolicy{PlantID: plantID, Enabled: true, BatchSimilar: false}
	second.SetCategorySettings(map[types.Category]types.CategorySetting{
		types.CategoryWatering: {Enabled: true, BaseFrequencyDays: 7},
	})
	if err := repo.UpsertPlantPolicy(context.Background(), nil, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetPlantPolicy(context.Background(), nil, plantID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("upsert must keep the original row identity")
	}
	if got.BatchSimilar {
		t.Fatalf("update lost the batch_similar change")
	}
	if got.CategorySettings()[types.CategoryWatering].BaseFrequencyDays != 7 {
		t.Fatalf("update lost the settings change")
	}
}

func TestPolicyRepo_SetDeliveryBlocked(t *testing.T) {
	repo := NewPolicyRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()
	policy := &types.PlantPolicy{ID: uuid.New(), PlantID: plantID, Enabled: true, BatchSimilar: true}
	if err := repo.UpsertPlantPolicy(context.Background(), nil, policy); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := repo.SetDeliveryBlocked(context.Background(), nil, plantID, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	got, err := repo.GetPlantPolicy(context.Background(), nil, plantID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.DeliveryBlocked {
		t.Fatalf("delivery_blocked not persisted")
	}

	if err := repo.SetDeliveryBlocked(context.Background(), nil, plantID, false); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	got, _ = repo.GetPlantPolicy(context.Background(), nil, plantID)
	if got.DeliveryBlocked {
		t.Fatalf("unblock not persisted")
	}
}

func TestPolicyRepo_UpdateWeatherDefer(t *testing.T) {
	repo := NewPolicyRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()
	policy := &types.PlantPolicy{ID: uuid.New(), PlantID: plantID, Enabled: true, BatchSimilar: true}
	if err := repo.UpsertPlantPolicy(context.Background(), nil, policy); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := repo.UpdateWeatherDefer(context.Background(), nil, plantID, map[types.Category]int{types.CategoryWatering: 2}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetPlantPolicy(context.Background(), nil, plantID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.WeatherDefer()[types.CategoryWatering] != 2 {
		t.Fatalf("weather defer counts lost: %v", got.WeatherDefer())
	}
}

func TestPolicyRepo_DeletePlantPolicy(t *testing.T) {
	repo := NewPolicyRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()
	policy := &types.PlantPolicy{ID: uuid.New(), PlantID: plantID, Enabled: true, BatchSimilar: true}
	if err := repo.UpsertPlantPolicy(context.Background(), nil, policy); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := repo.DeletePlantPolicy(context.Background(), nil, plantID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetPlantPolicy(context.Background(), nil, plantID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting again stays a no-op.
	if err := repo.DeletePlantPolicy(context.Background(), nil, plantID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}
