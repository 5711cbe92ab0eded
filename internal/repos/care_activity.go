package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/types"
)

type CareActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, activity *types.CareActivity) (*types.CareActivity, error)
	ListByPlant(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, limit int) ([]*types.CareActivity, error)
	// LastActivity returns the most recent performed_at for the plant and
	// category, or nil when nothing was ever logged.
	LastActivity(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, category types.Category) (*time.Time, error)
}

type careActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCareActivityRepo(db *gorm.DB, baseLog *logger.Logger) CareActivityRepo {
	repoLog := baseLog.With("repo", "CareActivityRepo")
	return &careActivityRepo{db: db, log: repoLog}
}

func (ar *careActivityRepo) Create(ctx context.Context, tx *gorm.DB, activity *types.CareActivity) (*types.CareActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if err := transaction.WithContext(ctx).Create(activity).Error; err != nil {
		return nil, err
	}
	return activity, nil
}

func (ar *careActivityRepo) ListByPlant(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, limit int) ([]*types.CareActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if limit <= 0 {
		limit = 50
	}
	var results []*types.CareActivity
	if err := transaction.WithContext(ctx).
		Where("plant_id = ?", plantID).
		Order("performed_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *careActivityRepo) LastActivity(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, category types.Category) (*time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var row types.CareActivity
	if err := transaction.WithContext(ctx).
		Where("plant_id = ? AND category = ?", plantID, category).
		Order("performed_at DESC").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	at := row.PerformedAt
	return &at, nil
}
