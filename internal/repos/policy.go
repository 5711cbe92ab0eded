package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/types"
)

type PolicyRepo interface {
	// GetGlobal returns the singleton global policy row, or ErrNotFound.
	GetGlobal(ctx context.Context, tx *gorm.DB) (*types.GlobalPolicy, error)
	UpsertGlobal(ctx context.Context, tx *gorm.DB, policy *types.GlobalPolicy) error

	GetPlantPolicy(ctx context.Context, tx *gorm.DB, plantID uuid.UUID) (*types.PlantPolicy, error)
	UpsertPlantPolicy(ctx context.Context, tx *gorm.DB, policy *types.PlantPolicy) error
	DeletePlantPolicy(ctx context.Context, tx *gorm.DB, plantID uuid.UUID) error

	SetDeliveryBlocked(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, blocked bool) error
	UpdateWeatherDefer(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, counts map[types.Category]int) error
}

type policyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPolicyRepo(db *gorm.DB, baseLog *logger.Logger) PolicyRepo {
	repoLog := baseLog.With("repo", "PolicyRepo")
	return &policyRepo{db: db, log: repoLog}
}

func (pr *policyRepo) GetGlobal(ctx context.Context, tx *gorm.DB) (*types.GlobalPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var row types.GlobalPolicy
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (pr *policyRepo) UpsertGlobal(ctx context.Context, tx *gorm.DB, policy *types.GlobalPolicy) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Save(policy).Error
}

func (pr *policyRepo) GetPlantPolicy(ctx context.Context, tx *gorm.DB, plantID uuid.UUID) (*types.PlantPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var row types.PlantPolicy
	if err := transaction.WithContext(ctx).
		Where("plant_id = ?", plantID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (pr *policyRepo) UpsertPlantPolicy(ctx context.Context, tx *gorm.DB, policy *types.PlantPolicy) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	existing, err := pr.GetPlantPolicy(ctx, transaction, policy.PlantID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		policy.ID = existing.ID
		policy.CreatedAt = existing.CreatedAt
	}
	return transaction.WithContext(ctx).Save(policy).Error
}

func (pr *policyRepo) DeletePlantPolicy(ctx context.Context, tx *gorm.DB, plantID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Where("plant_id = ?", plantID).
		Delete(&types.PlantPolicy{}).Error
}

func (pr *policyRepo) SetDeliveryBlocked(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, blocked bool) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PlantPolicy{}).
		Where("plant_id = ?", plantID).
		Update("delivery_blocked", blocked).Error
}

func (pr *policyRepo) UpdateWeatherDefer(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, counts map[types.Category]int) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	row := types.PlantPolicy{}
	row.SetWeatherDefer(counts)
	return transaction.WithContext(ctx).
		Model(&types.PlantPolicy{}).
		Where("plant_id = ?", plantID).
		Update("weather_defer", row.WeatherDeferJSON).Error
}
