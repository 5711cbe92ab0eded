package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/scheduling"
	"github.com/yungbote/plantpal-backend/internal/types"
)

var ErrInvalidPolicy = errors.New("invalid policy")

// PolicyService validates and persists notification policies. Every accepted
// change triggers a re-evaluation so pending schedules reflect the new
// preferences instead of the ones they were computed under.
type PolicyService interface {
	GetGlobal(ctx context.Context) (*types.GlobalPolicy, error)
	UpdateGlobal(ctx context.Context, policy *types.GlobalPolicy) (*types.GlobalPolicy, error)

	GetPlantPolicy(ctx context.Context, plantID uuid.UUID) (*types.PlantPolicy, error)
	UpsertPlantPolicy(ctx context.Context, policy *types.PlantPolicy) (*types.PlantPolicy, error)
	DeletePlantPolicy(ctx context.Context, plantID uuid.UUID) error
}

type policyService struct {
	log           *logger.Logger
	policies      repos.PolicyRepo
	plants        repos.PlantRepo
	notifications NotificationService
}

func NewPolicyService(
	baseLog *logger.Logger,
	policies repos.PolicyRepo,
	plants repos.PlantRepo,
	notifications NotificationService,
) PolicyService {
	return &policyService{
		log:           baseLog.With("service", "PolicyService"),
		policies:      policies,
		plants:        plants,
		notifications: notifications,
	}
}

// GetGlobal returns the singleton policy, creating the default row on first
// access so callers always see concrete values.
func (ps *policyService) GetGlobal(ctx context.Context) (*types.GlobalPolicy, error) {
	policy, err := ps.policies.GetGlobal(ctx, nil)
	if err == nil {
		return policy, nil
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}
	policy = DefaultGlobalPolicy()
	if err := ps.policies.UpsertGlobal(ctx, nil, policy); err != nil {
		return nil, fmt.Errorf("seed default global policy: %w", err)
	}
	ps.log.Info("Seeded default global policy")
	return policy, nil
}

func (ps *policyService) UpdateGlobal(ctx context.Context, policy *types.GlobalPolicy) (*types.GlobalPolicy, error) {
	if err := scheduling.ValidateGlobalPolicy(policy); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, err)
	}
	existing, err := ps.GetGlobal(ctx)
	if err != nil {
		return nil, err
	}
	policy.ID = existing.ID
	policy.CreatedAt = existing.CreatedAt
	if err := ps.policies.UpsertGlobal(ctx, nil, policy); err != nil {
		return nil, fmt.Errorf("save global policy: %w", err)
	}
	ps.reEvaluateAll(ctx)
	return policy, nil
}

func (ps *policyService) GetPlantPolicy(ctx context.Context, plantID uuid.UUID) (*types.PlantPolicy, error) {
	return ps.policies.GetPlantPolicy(ctx, nil, plantID)
}

func (ps *policyService) UpsertPlantPolicy(ctx context.Context, policy *types.PlantPolicy) (*types.PlantPolicy, error) {
	if err := scheduling.ValidatePlantPolicy(policy); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, err)
	}
	if _, err := ps.plants.GetByID(ctx, nil, policy.PlantID); err != nil {
		return nil, fmt.Errorf("load plant %s: %w", policy.PlantID, err)
	}
	if err := ps.policies.UpsertPlantPolicy(ctx, nil, policy); err != nil {
		return nil, fmt.Errorf("save plant policy: %w", err)
	}
	ps.reEvaluatePlant(ctx, policy.PlantID)
	return policy, nil
}

func (ps *policyService) DeletePlantPolicy(ctx context.Context, plantID uuid.UUID) error {
	if err := ps.policies.DeletePlantPolicy(ctx, nil, plantID); err != nil {
		return fmt.Errorf("delete plant policy: %w", err)
	}
	ps.reEvaluatePlant(ctx, plantID)
	return nil
}

// Pending schedules are cancelled before re-evaluating so nothing computed
// under the old policy survives it.
func (ps *policyService) reEvaluatePlant(ctx context.Context, plantID uuid.UUID) {
	if err := ps.notifications.CancelAllForPlant(ctx, plantID); err != nil {
		ps.log.Warn("Failed to cancel schedules after policy change", "plant_id", plantID, "error", err)
	}
	if _, err := ps.notifications.EvaluatePlant(ctx, plantID); err != nil {
		ps.log.Warn("Re-evaluation after policy change failed", "plant_id", plantID, "error", err)
	}
}

func (ps *policyService) reEvaluateAll(ctx context.Context) {
	plants, err := ps.plants.List(ctx, nil)
	if err != nil {
		ps.log.Warn("Failed to list plants after policy change", "error", err)
		return
	}
	for _, p := range plants {
		if err := ps.notifications.CancelAllForPlant(ctx, p.ID); err != nil {
			ps.log.Warn("Failed to cancel schedules after policy change", "plant_id", p.ID, "error", err)
		}
	}
	if _, err := ps.notifications.EvaluateAll(ctx); err != nil {
		ps.log.Warn("Re-evaluation after policy change failed", "error", err)
	}
}

// DefaultGlobalPolicy is the policy a fresh install runs under.
func DefaultGlobalPolicy() *types.GlobalPolicy {
	p := &types.GlobalPolicy{
		Enabled:              true,
		QuietHoursStart:      "22:00",
		QuietHoursEnd:        "07:00",
		MorningStart:         "08:00",
		MorningEnd:           "10:00",
		EveningStart:         "18:00",
		EveningEnd:           "20:00",
		DNDAllowUrgent:       true,
		DNDAllowAchievements: false,
		MaxPerHour:           3,
		MaxPerDay:            10,
		CooldownMinutes:      30,
		WeatherIntegration:   true,
		SeasonalAdjustment:   true,
		Batching:             true,
		PriorityDelivery:     true,
	}
	toggles := map[types.Category]bool{}
	for _, c := range []types.Category{
		types.CategoryWatering, types.CategoryFertilizer, types.CategoryHealthCheck,
		types.CategoryAchievement, types.CategoryAlert, types.CategorySystem,
	} {
		toggles[c] = true
	}
	p.SetCategoryEnabled(toggles)
	return p
}
