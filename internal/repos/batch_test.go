package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/types"
)

func TestBatchRepo_UpdateStatusPersistsHandle(t *testing.T) {
	repo := NewBatchRepo(newTestDB(t), newTestLogger(t))
	batch := &types.NotificationBatch{
		ID:           uuid.New(),
		Category:     types.CategoryWatering,
		ScheduledFor: testTime(0),
		Title:        "3 plants need watering",
		Status:       types.StatusScheduled,
	}
	batch.SetMemberIDs([]uuid.UUID{uuid.New(), uuid.New(), uuid.New()})
	if _, err := repo.Create(context.Background(), nil, batch); err != nil {
		t.Fatalf("create: %v", err)
	}

	batch.DeliveryHandle = "batch-handle-1"
	if err := repo.UpdateStatus(context.Background(), nil, batch, types.StatusScheduled); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := repo.GetByHandle(context.Background(), nil, "batch-handle-1")
	if err != nil {
		t.Fatalf("get by handle: %v", err)
	}
	if got.ID != batch.ID {
		t.Fatalf("wrong batch")
	}
	if len(got.MemberIDs()) != 3 {
		t.Fatalf("members lost in round trip, got %d", len(got.MemberIDs()))
	}

	if err := repo.UpdateStatus(context.Background(), nil, got, types.StatusDelivered); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	got, err = repo.GetByHandle(context.Background(), nil, "batch-handle-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.StatusDelivered {
		t.Fatalf("expected delivered, got %s", got.Status)
	}
}

func TestBatchRepo_GetByHandleNotFound(t *testing.T) {
	repo := NewBatchRepo(newTestDB(t), newTestLogger(t))
	if _, err := repo.GetByHandle(context.Background(), nil, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an empty handle, got %v", err)
	}
	if _, err := repo.GetByHandle(context.Background(), nil, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
