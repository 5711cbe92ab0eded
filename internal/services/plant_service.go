package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/types"
)

// PlantService is CRUD over plants. Creating a plant arms its first reminders;
// deleting one cancels everything still pending for it.
type PlantService interface {
	Create(ctx context.Context, plant *types.Plant) (*types.Plant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Plant, error)
	List(ctx context.Context) ([]*types.Plant, error)
	Update(ctx context.Context, plant *types.Plant) (*types.Plant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type plantService struct {
	log           *logger.Logger
	plants        repos.PlantRepo
	notifications NotificationService
}

func NewPlantService(baseLog *logger.Logger, plants repos.PlantRepo, notifications NotificationService) PlantService {
	return &plantService{
		log:           baseLog.With("service", "PlantService"),
		plants:        plants,
		notifications: notifications,
	}
}

func (ps *plantService) Create(ctx context.Context, plant *types.Plant) (*types.Plant, error) {
	if plant == nil || strings.TrimSpace(plant.Name) == "" {
		return nil, fmt.Errorf("plant name required")
	}
	created, err := ps.plants.Create(ctx, nil, plant)
	if err != nil {
		return nil, fmt.Errorf("save plant: %w", err)
	}
	if _, err := ps.notifications.EvaluatePlant(ctx, created.ID); err != nil {
		ps.log.Warn("Initial evaluation for new plant failed", "plant_id", created.ID, "error", err)
	}
	return created, nil
}

func (ps *plantService) GetByID(ctx context.Context, id uuid.UUID) (*types.Plant, error) {
	return ps.plants.GetByID(ctx, nil, id)
}

func (ps *plantService) List(ctx context.Context) ([]*types.Plant, error) {
	return ps.plants.List(ctx, nil)
}

func (ps *plantService) Update(ctx context.Context, plant *types.Plant) (*types.Plant, error) {
	if plant == nil || plant.ID == uuid.Nil {
		return nil, fmt.Errorf("plant id required")
	}
	if strings.TrimSpace(plant.Name) == "" {
		return nil, fmt.Errorf("plant name required")
	}
	existing, err := ps.plants.GetByID(ctx, nil, plant.ID)
	if err != nil {
		return nil, err
	}
	plant.CreatedAt = existing.CreatedAt
	if err := ps.plants.Update(ctx, nil, plant); err != nil {
		return nil, fmt.Errorf("save plant: %w", err)
	}
	return plant, nil
}

// Delete removes the plant after cancelling its pending reminders, so no
// notification fires for a plant that no longer exists. DB constraints cascade
// activities and the plant policy.
func (ps *plantService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := ps.plants.GetByID(ctx, nil, id); err != nil {
		return err
	}
	if err := ps.notifications.CancelAllForPlant(ctx, id); err != nil {
		ps.log.Warn("Failed to cancel schedules before delete", "plant_id", id, "error", err)
	}
	if err := ps.plants.Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	return nil
}
