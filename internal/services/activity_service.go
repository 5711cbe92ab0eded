package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/types"
)

// ActivityService records care activity. Logging an activity satisfies any
// pending reminder of the same category early and resets the cadence baseline,
// so the next reminder is computed from the actual care event.
type ActivityService interface {
	Log(ctx context.Context, activity *types.CareActivity) (*types.CareActivity, error)
	ListByPlant(ctx context.Context, plantID uuid.UUID, limit int) ([]*types.CareActivity, error)
}

type activityService struct {
	log           *logger.Logger
	activities    repos.CareActivityRepo
	plants        repos.PlantRepo
	nrepo         repos.NotificationRepo
	notifications NotificationService
}

func NewActivityService(
	baseLog *logger.Logger,
	activities repos.CareActivityRepo,
	plants repos.PlantRepo,
	nrepo repos.NotificationRepo,
	notifications NotificationService,
) ActivityService {
	return &activityService{
		log:           baseLog.With("service", "ActivityService"),
		activities:    activities,
		plants:        plants,
		nrepo:         nrepo,
		notifications: notifications,
	}
}

func (as *activityService) Log(ctx context.Context, activity *types.CareActivity) (*types.CareActivity, error) {
	if activity == nil {
		return nil, fmt.Errorf("activity required")
	}
	if !activity.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", activity.Category)
	}
	if _, err := as.plants.GetByID(ctx, nil, activity.PlantID); err != nil {
		return nil, fmt.Errorf("load plant %s: %w", activity.PlantID, err)
	}
	if activity.PerformedAt.IsZero() {
		activity.PerformedAt = time.Now().UTC()
	}

	created, err := as.activities.Create(ctx, nil, activity)
	if err != nil {
		return nil, fmt.Errorf("save activity: %w", err)
	}

	// The care event makes the pending reminder redundant.
	handle, err := as.nrepo.CancelPending(ctx, nil, activity.PlantID, activity.Category)
	if err != nil {
		as.log.Warn("Failed to cancel satisfied reminder", "plant_id", activity.PlantID, "category", activity.Category, "error", err)
	}
	if handle != "" {
		as.notifications.RevokeHandle(ctx, handle)
	}
	if _, err := as.notifications.EvaluatePlant(ctx, activity.PlantID); err != nil {
		as.log.Warn("Re-evaluation after activity failed", "plant_id", activity.PlantID, "error", err)
	}
	return created, nil
}

func (as *activityService) ListByPlant(ctx context.Context, plantID uuid.UUID, limit int) ([]*types.CareActivity, error) {
	return as.activities.ListByPlant(ctx, nil, plantID, limit)
}
