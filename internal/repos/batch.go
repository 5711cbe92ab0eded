package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/types"
)

type BatchRepo interface {
	Create(ctx context.Context, tx *gorm.DB, batch *types.NotificationBatch) (*types.NotificationBatch, error)
	GetByHandle(ctx context.Context, tx *gorm.DB, handle string) (*types.NotificationBatch, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, batch *types.NotificationBatch, status types.NotificationStatus) error
}

type batchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	repoLog := baseLog.With("repo", "BatchRepo")
	return &batchRepo{db: db, log: repoLog}
}

func (br *batchRepo) Create(ctx context.Context, tx *gorm.DB, batch *types.NotificationBatch) (*types.NotificationBatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if err := transaction.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

func (br *batchRepo) GetByHandle(ctx context.Context, tx *gorm.DB, handle string) (*types.NotificationBatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	if handle == "" {
		return nil, ErrNotFound
	}
	var row types.NotificationBatch
	if err := transaction.WithContext(ctx).
		Where("delivery_handle = ?", handle).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (br *batchRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, batch *types.NotificationBatch, status types.NotificationStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = br.db
	}
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if batch.DeliveryHandle != "" {
		updates["delivery_handle"] = batch.DeliveryHandle
	}
	return transaction.WithContext(ctx).
		Model(&types.NotificationBatch{}).
		Where("id = ?", batch.ID).
		Updates(updates).Error
}
