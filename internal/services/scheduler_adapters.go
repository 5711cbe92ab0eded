package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/scheduling"
	"github.com/yungbote/plantpal-backend/internal/types"
)

// The scheduler core works against narrow interfaces; these adapters back them
// with the gorm repos. Missing rows come back as nil values rather than
// ErrNotFound where the scheduler treats absence as a normal state.

type policySourceAdapter struct {
	policies repos.PolicyRepo
}

func (a policySourceAdapter) GlobalPolicy(ctx context.Context) (*types.GlobalPolicy, error) {
	p, err := a.policies.GetGlobal(ctx, nil)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (a policySourceAdapter) PlantPolicy(ctx context.Context, plantID uuid.UUID) (*types.PlantPolicy, error) {
	p, err := a.policies.GetPlantPolicy(ctx, nil, plantID)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (a policySourceAdapter) SetDeliveryBlocked(ctx context.Context, plantID uuid.UUID, blocked bool) error {
	return a.policies.SetDeliveryBlocked(ctx, nil, plantID, blocked)
}

func (a policySourceAdapter) SetWeatherDefer(ctx context.Context, plantID uuid.UUID, counts map[types.Category]int) error {
	return a.policies.UpdateWeatherDefer(ctx, nil, plantID, counts)
}

type historySourceAdapter struct {
	activities repos.CareActivityRepo
}

func (a historySourceAdapter) LastActivity(ctx context.Context, plantID uuid.UUID, category types.Category) (*time.Time, error) {
	return a.activities.LastActivity(ctx, nil, plantID, category)
}

type storeAdapter struct {
	notifications repos.NotificationRepo
	batches       repos.BatchRepo
}

func (a storeAdapter) Create(ctx context.Context, n *types.ScheduledNotification) error {
	_, err := a.notifications.Create(ctx, nil, n)
	return err
}

func (a storeAdapter) CreateBatch(ctx context.Context, b *types.NotificationBatch) error {
	_, err := a.batches.Create(ctx, nil, b)
	return err
}

func (a storeAdapter) GetByID(ctx context.Context, id uuid.UUID) (*types.ScheduledNotification, error) {
	return a.notifications.GetByID(ctx, nil, id)
}

func (a storeAdapter) GetByHandle(ctx context.Context, handle string) (*types.ScheduledNotification, error) {
	return a.notifications.GetByHandle(ctx, nil, handle)
}

func (a storeAdapter) GetBatchByHandle(ctx context.Context, handle string) (*types.NotificationBatch, error) {
	return a.batches.GetByHandle(ctx, nil, handle)
}

func (a storeAdapter) UpdateBatchStatus(ctx context.Context, b *types.NotificationBatch, status types.NotificationStatus) error {
	return a.batches.UpdateStatus(ctx, nil, b, status)
}

func (a storeAdapter) HasPending(ctx context.Context, plantID uuid.UUID, category types.Category) (bool, error) {
	return a.notifications.HasPending(ctx, nil, plantID, category)
}

func (a storeAdapter) ListUnhanded(ctx context.Context, limit int) ([]*types.ScheduledNotification, error) {
	return a.notifications.ListUnhanded(ctx, nil, limit)
}

func (a storeAdapter) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []types.NotificationStatus, updates map[string]any) (bool, error) {
	return a.notifications.UpdateStatusIf(ctx, nil, id, from, updates)
}

func (a storeAdapter) RecordInteraction(ctx context.Context, id uuid.UUID, interaction types.Interaction, at time.Time) (bool, error) {
	return a.notifications.RecordInteraction(ctx, nil, id, interaction, at)
}

func (a storeAdapter) CountDelivered(ctx context.Context, plantID *uuid.UUID, since time.Time) (int64, error) {
	return a.notifications.CountDelivered(ctx, nil, plantID, since)
}

func (a storeAdapter) LastDelivery(ctx context.Context, plantID uuid.UUID, category types.Category) (*time.Time, error) {
	return a.notifications.LastDelivery(ctx, nil, plantID, category)
}

func (a storeAdapter) CancelAllForPlant(ctx context.Context, plantID uuid.UUID) ([]string, error) {
	return a.notifications.CancelAllForPlant(ctx, nil, plantID)
}

var _ scheduling.PolicySource = policySourceAdapter{}
var _ scheduling.HistorySource = historySourceAdapter{}
var _ scheduling.Store = storeAdapter{}
