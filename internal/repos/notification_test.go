package repos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/types"
)

func seedNotification(t *testing.T, repo NotificationRepo, n *types.ScheduledNotification) *types.ScheduledNotification {
	t.Helper()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Title == "" {
		n.Title = "Time to water"
	}
	if n.Priority == "" {
		n.Priority = types.PriorityMedium
	}
	if n.Status == "" {
		n.Status = types.StatusScheduled
	}
	if n.DeliveryStatus == "" {
		n.DeliveryStatus = types.DeliveryPending
	}
	if n.ScheduledFor.IsZero() {
		n.ScheduledFor = testTime(0)
	}
	created, err := repo.Create(context.Background(), nil, n)
	if err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return created
}

func TestNotificationRepo_UpdateStatusIfGuard(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()
	n := seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryWatering})

	ok, err := repo.UpdateStatusIf(context.Background(), nil, n.ID,
		[]types.NotificationStatus{types.StatusDelivered},
		map[string]any{"status": types.StatusCancelled})
	if err != nil {
		t.Fatalf("guarded update: %v", err)
	}
	if ok {
		t.Fatalf("guard must reject a row not in the expected state")
	}

	ok, err = repo.UpdateStatusIf(context.Background(), nil, n.ID,
		[]types.NotificationStatus{types.StatusScheduled},
		map[string]any{"status": types.StatusDelivered, "delivered_at": testTime(0)})
	if err != nil {
		t.Fatalf("guarded update: %v", err)
	}
	if !ok {
		t.Fatalf("guard must pass when the state matches")
	}

	got, err := repo.GetByID(context.Background(), nil, n.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.StatusDelivered {
		t.Fatalf("expected delivered, got %s", got.Status)
	}
	if got.DeliveredAt == nil {
		t.Fatalf("delivered_at not persisted")
	}
}

func TestNotificationRepo_HasPending(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	pending, err := repo.HasPending(context.Background(), nil, plantID, types.CategoryWatering)
	if err != nil {
		t.Fatalf("has pending: %v", err)
	}
	if pending {
		t.Fatalf("empty table must report no pending")
	}

	seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryWatering})
	pending, err = repo.HasPending(context.Background(), nil, plantID, types.CategoryWatering)
	if err != nil {
		t.Fatalf("has pending: %v", err)
	}
	if !pending {
		t.Fatalf("scheduled row must count as pending")
	}

	// A different category stays independent.
	pending, err = repo.HasPending(context.Background(), nil, plantID, types.CategoryFertilizer)
	if err != nil {
		t.Fatalf("has pending: %v", err)
	}
	if pending {
		t.Fatalf("fertilizer must not inherit the watering row")
	}
}

func TestNotificationRepo_ListUnhanded(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	unhanded := seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryWatering})
	seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryFertilizer, DeliveryHandle: "handle-1"})
	seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryHealthCheck, Status: types.StatusSkipped})

	rows, err := repo.ListUnhanded(context.Background(), nil, 10)
	if err != nil {
		t.Fatalf("list unhanded: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 unhanded row, got %d", len(rows))
	}
	if rows[0].ID != unhanded.ID {
		t.Fatalf("wrong row returned")
	}
}

func TestNotificationRepo_CountDelivered(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantA := uuid.New()
	plantB := uuid.New()

	recent := testTime(0).Add(-30 * time.Minute)
	old := testTime(2)
	seedNotification(t, repo, &types.ScheduledNotification{
		PlantID: &plantA, Category: types.CategoryWatering,
		Status: types.StatusDelivered, DeliveryStatus: types.DeliveryDelivered, LastAttempt: &recent,
	})
	seedNotification(t, repo, &types.ScheduledNotification{
		PlantID: &plantB, Category: types.CategoryWatering,
		DeliveryStatus: types.DeliverySent, LastAttempt: &old,
	})
	seedNotification(t, repo, &types.ScheduledNotification{
		PlantID: &plantA, Category: types.CategoryFertilizer,
	})

	hourAgo := testTime(1)
	count, err := repo.CountDelivered(context.Background(), nil, nil, hourAgo)
	if err != nil {
		t.Fatalf("count delivered: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 delivery in the last hour, got %d", count)
	}

	dayAgo := testTime(24)
	count, err = repo.CountDelivered(context.Background(), nil, nil, dayAgo)
	if err != nil {
		t.Fatalf("count delivered: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 deliveries in the last day, got %d", count)
	}

	count, err = repo.CountDelivered(context.Background(), nil, &plantB, dayAgo)
	if err != nil {
		t.Fatalf("count delivered: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 delivery for plant B, got %d", count)
	}
}

func TestNotificationRepo_RecordInteraction(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	scheduled := seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryWatering})
	ok, err := repo.RecordInteraction(context.Background(), nil, scheduled.ID, types.InteractionOpened, testTime(0))
	if err != nil {
		t.Fatalf("record interaction: %v", err)
	}
	if ok {
		t.Fatalf("an undelivered row must not accept an interaction")
	}

	delivered := seedNotification(t, repo, &types.ScheduledNotification{
		PlantID: &plantID, Category: types.CategoryFertilizer,
		Status: types.StatusDelivered, DeliveryStatus: types.DeliveryDelivered,
	})
	ok, err = repo.RecordInteraction(context.Background(), nil, delivered.ID, types.InteractionOpened, testTime(0))
	if err != nil {
		t.Fatalf("record interaction: %v", err)
	}
	if !ok {
		t.Fatalf("first interaction on a delivered row must land")
	}

	// Set-once: a later callback loses and leaves the first value in place.
	ok, err = repo.RecordInteraction(context.Background(), nil, delivered.ID, types.InteractionDismissed, testTime(0))
	if err != nil {
		t.Fatalf("record interaction: %v", err)
	}
	if ok {
		t.Fatalf("second interaction must be rejected")
	}
	got, err := repo.GetByID(context.Background(), nil, delivered.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Interaction != types.InteractionOpened {
		t.Fatalf("expected opened to stick, got %q", got.Interaction)
	}
	if got.InteractedAt == nil {
		t.Fatalf("interacted_at not persisted")
	}
}

func TestNotificationRepo_LastDelivery(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	last, err := repo.LastDelivery(context.Background(), nil, plantID, types.CategoryWatering)
	if err != nil {
		t.Fatalf("last delivery: %v", err)
	}
	if last != nil {
		t.Fatalf("expected nil when nothing was delivered")
	}

	older := testTime(5)
	newer := testTime(1)
	seedNotification(t, repo, &types.ScheduledNotification{
		PlantID: &plantID, Category: types.CategoryWatering,
		DeliveryStatus: types.DeliverySent, LastAttempt: &older,
	})
	seedNotification(t, repo, &types.ScheduledNotification{
		PlantID: &plantID, Category: types.CategoryWatering,
		Status: types.StatusDelivered, DeliveryStatus: types.DeliveryDelivered, LastAttempt: &newer,
	})

	last, err = repo.LastDelivery(context.Background(), nil, plantID, types.CategoryWatering)
	if err != nil {
		t.Fatalf("last delivery: %v", err)
	}
	if last == nil || !last.Equal(newer) {
		t.Fatalf("expected %v, got %v", newer, last)
	}
}

func TestNotificationRepo_CancelAllForPlant(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryWatering, DeliveryHandle: "handle-1"})
	seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryFertilizer})
	delivered := seedNotification(t, repo, &types.ScheduledNotification{
		PlantID: &plantID, Category: types.CategoryHealthCheck,
		Status: types.StatusDelivered, DeliveryStatus: types.DeliveryDelivered,
	})

	handles, err := repo.CancelAllForPlant(context.Background(), nil, plantID)
	if err != nil {
		t.Fatalf("cancel all: %v", err)
	}
	if len(handles) != 1 || handles[0] != "handle-1" {
		t.Fatalf("expected the one handed handle, got %v", handles)
	}

	got, err := repo.GetByID(context.Background(), nil, delivered.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.StatusDelivered {
		t.Fatalf("terminal rows must not be cancelled, got %s", got.Status)
	}

	handles, err = repo.CancelAllForPlant(context.Background(), nil, plantID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if len(handles) != 0 {
		t.Fatalf("second call must find nothing, got %v", handles)
	}
}

func TestNotificationRepo_CancelPending(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()

	handle, err := repo.CancelPending(context.Background(), nil, plantID, types.CategoryWatering)
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if handle != "" {
		t.Fatalf("nothing pending must yield an empty handle")
	}

	n := seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryWatering, DeliveryHandle: "handle-1"})
	handle, err = repo.CancelPending(context.Background(), nil, plantID, types.CategoryWatering)
	if err != nil {
		t.Fatalf("cancel pending: %v", err)
	}
	if handle != "handle-1" {
		t.Fatalf("expected the row's handle, got %q", handle)
	}

	got, err := repo.GetByID(context.Background(), nil, n.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestNotificationRepo_GetByHandle(t *testing.T) {
	repo := NewNotificationRepo(newTestDB(t), newTestLogger(t))
	plantID := uuid.New()
	seedNotification(t, repo, &types.ScheduledNotification{PlantID: &plantID, Category: types.CategoryWatering, DeliveryHandle: "handle-1"})

	got, err := repo.GetByHandle(context.Background(), nil, "handle-1")
	if err != nil {
		t.Fatalf("get by handle: %v", err)
	}
	if got.DeliveryHandle != "handle-1" {
		t.Fatalf("wrong row")
	}

	// An empty handle must never match unhanded rows.
	if _, err := repo.GetByHandle(context.Background(), nil, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an empty handle, got %v", err)
	}
	if _, err := repo.GetByHandle(context.Background(), nil, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
