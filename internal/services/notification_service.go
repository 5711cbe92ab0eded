package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/scheduling"
	"github.com/yungbote/plantpal-backend/internal/types"
)

// NotificationService fronts the scheduler: evaluation passes, transport
// outcome reconciliation, and read/cancel access to the schedule records.
type NotificationService interface {
	// EvaluateAll runs one scheduling pass over every plant.
	EvaluateAll(ctx context.Context) ([]scheduling.Decision, error)
	// EvaluatePlant runs a pass restricted to one plant, e.g. after its
	// policy changed or an activity was logged.
	EvaluatePlant(ctx context.Context, plantID uuid.UUID) ([]scheduling.Decision, error)
	HandleOutcome(ctx context.Context, handle string, outcome scheduling.Outcome) error
	ListForPlant(ctx context.Context, plantID uuid.UUID, limit int) ([]*types.ScheduledNotification, error)
	// Cancel marks one scheduled notification cancelled and revokes its
	// transport handle. Cancelling a terminal notification is a no-op.
	Cancel(ctx context.Context, id uuid.UUID) error
	CancelAllForPlant(ctx context.Context, plantID uuid.UUID) error
	// RevokeHandle tells the transport to drop a handle whose local record was
	// already cancelled. Empty handles are ignored.
	RevokeHandle(ctx context.Context, handle string)
}

type notificationService struct {
	log           *logger.Logger
	plants        repos.PlantRepo
	notifications repos.NotificationRepo
	scheduler     *scheduling.Scheduler
}

func NewNotificationService(
	baseLog *logger.Logger,
	plants repos.PlantRepo,
	notifications repos.NotificationRepo,
	scheduler *scheduling.Scheduler,
) NotificationService {
	return &notificationService{
		log:           baseLog.With("service", "NotificationService"),
		plants:        plants,
		notifications: notifications,
		scheduler:     scheduler,
	}
}

// NewSchedulerFromRepos wires the scheduler core against the gorm repos and
// the given weather source and transport.
func NewSchedulerFromRepos(
	baseLog *logger.Logger,
	policies repos.PolicyRepo,
	activities repos.CareActivityRepo,
	notifications repos.NotificationRepo,
	batches repos.BatchRepo,
	weather scheduling.WeatherSource,
	transport scheduling.Transport,
	seasonal scheduling.SeasonalConfig,
	rec scheduling.Recorder,
	cfg scheduling.Config,
) *scheduling.Scheduler {
	return scheduling.NewScheduler(
		baseLog,
		policySourceAdapter{policies: policies},
		historySourceAdapter{activities: activities},
		weather,
		storeAdapter{notifications: notifications, batches: batches},
		transport,
		seasonal,
		rec,
		cfg,
	)
}

func (ns *notificationService) EvaluateAll(ctx context.Context) ([]scheduling.Decision, error) {
	plants, err := ns.plants.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}
	refs := make([]scheduling.PlantRef, 0, len(plants))
	for _, p := range plants {
		refs = append(refs, scheduling.PlantRef{ID: p.ID, Name: p.Name})
	}
	decisions, err := ns.scheduler.Evaluate(ctx, refs)
	if err != nil {
		return decisions, fmt.Errorf("evaluate: %w", err)
	}
	ns.log.Info("Evaluation pass complete", "plants", len(refs), "decisions", len(decisions))
	return decisions, nil
}

func (ns *notificationService) EvaluatePlant(ctx context.Context, plantID uuid.UUID) ([]scheduling.Decision, error) {
	plant, err := ns.plants.GetByID(ctx, nil, plantID)
	if err != nil {
		return nil, fmt.Errorf("load plant %s: %w", plantID, err)
	}
	return ns.scheduler.Evaluate(ctx, []scheduling.PlantRef{{ID: plant.ID, Name: plant.Name}})
}

func (ns *notificationService) HandleOutcome(ctx context.Context, handle string, outcome scheduling.Outcome) error {
	return ns.scheduler.HandleOutcome(ctx, handle, outcome)
}

func (ns *notificationService) ListForPlant(ctx context.Context, plantID uuid.UUID, limit int) ([]*types.ScheduledNotification, error) {
	return ns.notifications.ListByPlant(ctx, nil, plantID, limit)
}

func (ns *notificationService) Cancel(ctx context.Context, id uuid.UUID) error {
	n, err := ns.notifications.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	ok, err := ns.notifications.UpdateStatusIf(ctx, nil, n.ID,
		[]types.NotificationStatus{types.StatusScheduled},
		map[string]any{
			"status":          types.StatusCancelled,
			"delivery_status": types.DeliveryCancelled,
			"updated_at":      time.Now().UTC(),
		})
	if err != nil {
		return fmt.Errorf("cancel notification %s: %w", id, err)
	}
	if ok {
		ns.scheduler.CancelPendingFor(ctx, n.DeliveryHandle)
	}
	return nil
}

func (ns *notificationService) CancelAllForPlant(ctx context.Context, plantID uuid.UUID) error {
	return ns.scheduler.CancelAllForPlant(ctx, plantID)
}

func (ns *notificationService) RevokeHandle(ctx context.Context, handle string) {
	ns.scheduler.CancelPendingFor(ctx, handle)
}
