package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/types"
)

func TestCareActivityRepo_LastActivity(t *testing.T) {
	repo := NewCareActivityRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	last, err := repo.LastActivity(context.Background(), nil, plantID, types.CategoryWatering)
	if err != nil {
		t.Fatalf("last activity: %v", err)
	}
	if last != nil {
		t.Fatalf("expected nil for a plant never logged")
	}

	older := testTime(48)
	newer := testTime(2)
	for _, a := range []*types.CareActivity{
		{ID: uuid.New(), PlantID: plantID, Category: types.CategoryWatering, PerformedAt: older},
		{ID: uuid.New(), PlantID: plantID, Category: types.CategoryWatering, PerformedAt: newer},
		{ID: uuid.New(), PlantID: plantID, Category: types.CategoryFertilizer, PerformedAt: testTime(1)},
	} {
		if _, err := repo.Create(context.Background(), nil, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	last, err = repo.LastActivity(context.Background(), nil, plantID, types.CategoryWatering)
	if err != nil {
		t.Fatalf("last activity: %v", err)
	}
	if last == nil || !last.Equal(newer) {
		t.Fatalf("expected %v, got %v", newer, last)
	}
}

func TestCareActivityRepo_ListByPlantOrdersNewestFirst(t *testing.T) {
	repo := NewCareActivityRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	for hours := 3; hours >= 1; hours-- {
		a := &types.CareActivity{ID: uuid.New(), PlantID: plantID, Category: types.CategoryWatering, PerformedAt: testTime(hours)}
		if _, err := repo.Create(context.Background(), nil, a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rows, err := repo.ListByPlant(context.Background(), nil, plantID, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].PerformedAt.After(rows[i-1].PerformedAt) {
			t.Fatalf("rows out of order at %d", i)
		}
	}
}
