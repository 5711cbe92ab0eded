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

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, n *types.ScheduledNotification) (*types.ScheduledNotification, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ScheduledNotification, error)
	GetByHandle(ctx context.Context, tx *gorm.DB, handle string) (*types.ScheduledNotification, error)
	ListByPlant(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, limit int) ([]*types.ScheduledNotification, error)

	// HasPending reports whether a scheduled, undelivered notification already
	// exists for the plant and category (evaluation dedupe).
	HasPending(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, category types.Category) (bool, error)

	// ListUnhanded returns scheduled notifications that were never handed to
	// the transport (empty delivery handle), due for retry.
	ListUnhanded(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ScheduledNotification, error)

	// UpdateStatusIf performs a compare-and-swap on status: the row is updated
	// only while its current status is one of fromStatuses. Returns false when
	// the guard did not match (concurrent callback or cancellation won).
	UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatuses []types.NotificationStatus, updates map[string]any) (bool, error)

	// RecordInteraction sets the interaction on a delivered notification. The
	// emptiness check lives in the WHERE clause so the first concurrent
	// callback wins; later ones report false.
	RecordInteraction(ctx context.Context, tx *gorm.DB, id uuid.UUID, interaction types.Interaction, at time.Time) (bool, error)

	// CountDelivered counts notifications sent or delivered since the cutoff;
	// plantID nil counts globally.
	CountDelivered(ctx context.Context, tx *gorm.DB, plantID *uuid.UUID, since time.Time) (int64, error)

	// LastDelivery returns the most recent sent/delivered time for the plant
	// and category, or nil.
	LastDelivery(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, category types.Category) (*time.Time, error)

	// CancelAllForPlant marks every non-terminal notification for the plant
	// cancelled and returns the transport handles that still need cancelling.
	CancelAllForPlant(ctx context.Context, tx *gorm.DB, plantID uuid.UUID) ([]string, error)

	// CancelPending cancels the pending notification for a plant and category,
	// returning its handle ("" when none). Used when a manual activity log
	// satisfies the reminder early.
	CancelPending(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, category types.Category) (string, error)

	CountPending(ctx context.Context, tx *gorm.DB) (int64, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	repoLog := baseLog.With("repo", "NotificationRepo")
	return &notificationRepo{db: db, log: repoLog}
}

func (nr *notificationRepo) Create(ctx context.Context, tx *gorm.DB, n *types.ScheduledNotification) (*types.ScheduledNotification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	if err := transaction.WithContext(ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func (nr *notificationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ScheduledNotification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	var row types.ScheduledNotification
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (nr *notificationRepo) GetByHandle(ctx context.Context, tx *gorm.DB, handle string) (*types.ScheduledNotification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	if handle == "" {
		return nil, ErrNotFound
	}
	var row types.ScheduledNotification
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

func (nr *notificationRepo) ListByPlant(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, limit int) ([]*types.ScheduledNotification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	if limit <= 0 {
		limit = 50
	}
	var results []*types.ScheduledNotification
	if err := transaction.WithContext(ctx).
		Where("plant_id = ?", plantID).
		Order("scheduled_for DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (nr *notificationRepo) HasPending(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, category types.Category) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ScheduledNotification{}).
		Where("plant_id = ? AND category = ? AND status = ?", plantID, category, types.StatusScheduled).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (nr *notificationRepo) ListUnhanded(ctx context.Context, tx *gorm.DB, limit int) ([]*types.ScheduledNotification, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	if limit <= 0 {
		limit = 100
	}
	var results []*types.ScheduledNotification
	if err := transaction.WithContext(ctx).
		Where("status = ? AND (delivery_handle IS NULL OR delivery_handle = '')", types.StatusScheduled).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (nr *notificationRepo) UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatuses []types.NotificationStatus, updates map[string]any) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	if len(fromStatuses) == 0 {
		fromStatuses = []types.NotificationStatus{types.StatusScheduled}
	}
	res := transaction.WithContext(ctx).
		Model(&types.ScheduledNotification{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (nr *notificationRepo) RecordInteraction(ctx context.Context, tx *gorm.DB, id uuid.UUID, interaction types.Interaction, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ScheduledNotification{}).
		Where("id = ? AND status = ? AND (interaction IS NULL OR interaction = '')", id, types.StatusDelivered).
		Updates(map[string]any{
			"interaction":   interaction,
			"interacted_at": at,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (nr *notificationRepo) CountDelivered(ctx context.Context, tx *gorm.DB, plantID *uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.ScheduledNotification{}).
		Where("delivery_status IN ?", []types.DeliveryStatus{types.DeliverySent, types.DeliveryDelivered}).
		Where("last_attempt >= ?", since)
	if plantID != nil {
		q = q.Where("plant_id = ?", *plantID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (nr *notificationRepo) LastDelivery(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, category types.Category) (*time.Time, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	var row types.ScheduledNotification
	if err := transaction.WithContext(ctx).
		Where("plant_id = ? AND category = ?", plantID, category).
		Where("delivery_status IN ?", []types.DeliveryStatus{types.DeliverySent, types.DeliveryDelivered}).
		Order("last_attempt DESC").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row.LastAttempt, nil
}

func (nr *notificationRepo) CancelAllForPlant(ctx context.Context, tx *gorm.DB, plantID uuid.UUID) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	var rows []*types.ScheduledNotification
	if err := transaction.WithContext(ctx).
		Where("plant_id = ? AND status = ?", plantID, types.StatusScheduled).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	handles := make([]string, 0, len(rows))
	for _, row := range rows {
		ok, err := nr.UpdateStatusIf(ctx, transaction, row.ID,
			[]types.NotificationStatus{types.StatusScheduled},
			map[string]any{
				"status":          types.StatusCancelled,
				"delivery_status": types.DeliveryCancelled,
				"updated_at":      time.Now().UTC(),
			})
		if err != nil {
			return handles, err
		}
		if ok && row.DeliveryHandle != "" {
			handles = append(handles, row.DeliveryHandle)
		}
	}
	return handles, nil
}

func (nr *notificationRepo) CancelPending(ctx context.Context, tx *gorm.DB, plantID uuid.UUID, category types.Category) (string, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	var row types.ScheduledNotification
	if err := transaction.WithContext(ctx).
		Where("plant_id = ? AND category = ? AND status = ?", plantID, category, types.StatusScheduled).
		Order("scheduled_for ASC").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	ok, err := nr.UpdateStatusIf(ctx, transaction, row.ID,
		[]types.NotificationStatus{types.StatusScheduled},
		map[string]any{
			"status":          types.StatusCancelled,
			"delivery_status": types.DeliveryCancelled,
			"updated_at":      time.Now().UTC(),
		})
	if err != nil || !ok {
		return "", err
	}
	return row.DeliveryHandle, nil
}

func (nr *notificationRepo) CountPending(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = nr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ScheduledNotification{}).
		Where("status = ?", types.StatusScheduled).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
