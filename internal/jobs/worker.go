package jobs

import (
	"context"
	"time"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/observability"
	"github.com/yungbote/plantpal-backend/internal/services"
)

// Worker drives the periodic evaluation pass. The scheduler itself is
// event-triggered too (policy changes, activity logs); the ticker is the
// backstop that picks up cadence crossings and retries failed hand-offs.
type Worker struct {
	log           *logger.Logger
	notifications services.NotificationService
	metrics       *observability.Metrics
	interval      time.Duration
}

func NewWorker(baseLog *logger.Logger, notifications services.NotificationService, metrics *observability.Metrics, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Worker{
		log:           baseLog.With("component", "EvaluationWorker"),
		notifications: notifications,
		metrics:       metrics,
		interval:      interval,
	}
}

func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		w.runOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

// If a pass panics we want the worker to survive and try again next tick.
func (w *Worker) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Evaluation pass panic", "panic", r)
		}
	}()
	start := time.Now()
	decisions, err := w.notifications.EvaluateAll(ctx)
	w.metrics.ObservePass(time.Since(start), err != nil)
	if err != nil {
		w.log.Warn("Evaluation pass failed", "error", err)
		return
	}
	w.log.Debug("Evaluation pass finished", "decisions", len(decisions), "took", time.Since(start))
}
