package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/types"
)

type PlantRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plant *types.Plant) (*types.Plant, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Plant, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Plant, error)
	Update(ctx context.Context, tx *gorm.DB, plant *types.Plant) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type plantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlantRepo(db *gorm.DB, baseLog *logger.Logger) PlantRepo {
	repoLog := baseLog.With("repo", "PlantRepo")
	return &plantRepo{db: db, log: repoLog}
}

func (pr *plantRepo) Create(ctx context.Context, tx *gorm.DB, plant *types.Plant) (*types.Plant, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if err := transaction.WithContext(ctx).Create(plant).Error; err != nil {
		return nil, err
	}
	return plant, nil
}

func (pr *plantRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Plant, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var result types.Plant
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (pr *plantRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Plant, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Plant
	if err := transaction.WithContext(ctx).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *plantRepo) Update(ctx context.Context, tx *gorm.DB, plant *types.Plant) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Save(plant).Error
}

func (pr *plantRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Plant{}).Error
}
