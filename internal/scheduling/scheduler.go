package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/types"
)

// PlantRef is the minimal plant identity an evaluation pass works with.
type PlantRef struct {
	ID   uuid.UUID
	Name string
}

// PolicySource supplies policies and policy-side state to the scheduler.
type PolicySource interface {
	GlobalPolicy(ctx context.Context) (*types.GlobalPolicy, error)
	// PlantPolicy returns nil (no error) when the plant has no override.
	PlantPolicy(ctx context.Context, plantID uuid.UUID) (*types.PlantPolicy, error)
	SetDeliveryBlocked(ctx context.Context, plantID uuid.UUID, blocked bool) error
	SetWeatherDefer(ctx context.Context, plantID uuid.UUID, counts map[types.Category]int) error
}

// HistorySource reads the care-activity log.
type HistorySource interface {
	LastActivity(ctx context.Context, plantID uuid.UUID, category types.Category) (*time.Time, error)
}

// WeatherSource returns the current snapshot; nil when none was ever fetched.
// Freshness is judged by the scheduler against its TTL.
type WeatherSource interface {
	Snapshot() *types.WeatherContext
}

// Store is the durable schedule record. Status updates are compare-and-swap so
// a delivery callback and a cancellation can't race on the same row.
type Store interface {
	Create(ctx context.Context, n *types.ScheduledNotification) error
	CreateBatch(ctx context.Context, b *types.NotificationBatch) error
	GetByID(ctx context.Context, id uuid.UUID) (*types.ScheduledNotification, error)
	GetByHandle(ctx context.Context, handle string) (*types.ScheduledNotification, error)
	GetBatchByHandle(ctx context.Context, handle string) (*types.NotificationBatch, error)
	UpdateBatchStatus(ctx context.Context, b *types.NotificationBatch, status types.NotificationStatus) error
	HasPending(ctx context.Context, plantID uuid.UUID, category types.Category) (bool, error)
	ListUnhanded(ctx context.Context, limit int) ([]*types.ScheduledNotification, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from []types.NotificationStatus, updates map[string]any) (bool, error)
	// RecordInteraction sets the interaction on a delivered notification,
	// once; later writes lose and report false.
	RecordInteraction(ctx context.Context, id uuid.UUID, interaction types.Interaction, at time.Time) (bool, error)
	CountDelivered(ctx context.Context, plantID *uuid.UUID, since time.Time) (int64, error)
	LastDelivery(ctx context.Context, plantID uuid.UUID, category types.Category) (*time.Time, error)
	CancelAllForPlant(ctx context.Context, plantID uuid.UUID) ([]string, error)
}

// PushPayload is what the delivery transport needs to schedule an OS-level
// notification.
type PushPayload struct {
	NotificationID uuid.UUID      `json:"notification_id"`
	BatchID        *uuid.UUID     `json:"batch_id,omitempty"`
	PlantID        *uuid.UUID     `json:"plant_id,omitempty"`
	Category       types.Category `json:"category"`
	Priority       types.Priority `json:"priority"`
	Title          string         `json:"title"`
	Body           string         `json:"body"`
	ScheduledFor   time.Time      `json:"scheduled_for"`
}

// Transport is the OS push facility. Outcomes arrive asynchronously through
// HandleOutcome, keyed by the handle Schedule returned.
type Transport interface {
	Schedule(ctx context.Context, payload PushPayload) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// OutcomeKind classifies an inbound transport callback.
type OutcomeKind string

const (
	OutcomeDelivered   OutcomeKind = "delivered"
	OutcomeFailed      OutcomeKind = "failed"
	OutcomeInteraction OutcomeKind = "interaction"
)

// Outcome is the transport's asynchronous report for one delivery handle.
type Outcome struct {
	Kind         OutcomeKind
	At           time.Time
	Transient    bool
	ErrorMessage string
	Interaction  types.Interaction
}

// Recorder receives scheduling observability events. Implementations must be
// safe for concurrent use.
type Recorder interface {
	IncDecision(outcome, reason string)
	IncOutcome(kind string)
}

type nopRecorder struct{}

func (nopRecorder) IncDecision(string, string) {}
func (nopRecorder) IncOutcome(string)          {}

// Config tunes the scheduler. Zero values take the documented defaults.
type Config struct {
	WeatherTTL         time.Duration // default 3h
	BatchWindowMinutes int           // default 10
	MaxAttempts        int           // default 3
	RetryBackoffBase   time.Duration // default 30s
	MaxRetryBackoff    time.Duration // default 1h
	TransportTimeout   time.Duration // default 5s
	Parallelism        int           // default 4
	Location           *time.Location
	Now                func() time.Time
}

func (c Config) withDefaults() Config {
	if c.WeatherTTL <= 0 {
		c.WeatherTTL = 3 * time.Hour
	}
	if c.BatchWindowMinutes <= 0 {
		c.BatchWindowMinutes = 10
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoffBase <= 0 {
		c.RetryBackoffBase = 30 * time.Second
	}
	if c.MaxRetryBackoff <= 0 {
		c.MaxRetryBackoff = time.Hour
	}
	if c.TransportTimeout <= 0 {
		c.TransportTimeout = 5 * time.Second
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

// Scheduler ties resolution, cadence, window planning, quota and batching
// together and reconciles transport outcomes back into the store. Candidate
// computation per plant is independent and runs concurrently; admission runs
// under a single lock so two passes can't jointly blow the quota.
type Scheduler struct {
	log       *logger.Logger
	policies  PolicySource
	history   HistorySource
	weather   WeatherSource
	store     Store
	transport Transport
	seasonal  SeasonalConfig
	cfg       Config
	rec       Recorder

	admitMu sync.Mutex
}

func NewScheduler(
	baseLog *logger.Logger,
	policies PolicySource,
	history HistorySource,
	weather WeatherSource,
	store Store,
	transport Transport,
	seasonal SeasonalConfig,
	rec Recorder,
	cfg Config,
) *Scheduler {
	if seasonal == nil {
		seasonal = DefaultSeasonalConfig()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Scheduler{
		log:       baseLog.With("component", "Scheduler"),
		policies:  policies,
		history:   history,
		weather:   weather,
		store:     store,
		transport: transport,
		seasonal:  seasonal,
		cfg:       cfg.withDefaults(),
		rec:       rec,
	}
}

// Evaluate runs one scheduling pass over the given plants and returns the
// decisions taken. It is safe to call concurrently; admission serializes.
func (s *Scheduler) Evaluate(ctx context.Context, plants []PlantRef) ([]Decision, error) {
	now := s.cfg.Now()

	global, err := s.policies.GlobalPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("load global policy: %w", err)
	}
	if global == nil || !global.Enabled {
		s.log.Debug("Global policy disabled, nothing to evaluate")
		return nil, nil
	}

	s.retryUnhanded(ctx)

	weather := s.weather.Snapshot()

	var (
		mu         sync.Mutex
		candidates []Candidate
		decisions  []Decision
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for _, plant := range plants {
		g.Go(func() error {
			cands, decs, err := s.computeCandidates(gctx, plant, global, weather, now)
			if err != nil {
				return err
			}
			mu.Lock()
			candidates = append(candidates, cands...)
			decisions = append(decisions, decs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return decisions, err
	}

	admitted, admitDecisions, err := s.admit(ctx, candidates, now)
	decisions = append(decisions, admitDecisions...)
	if err != nil {
		return decisions, err
	}

	emitDecisions, err := s.emit(ctx, admitted)
	decisions = append(decisions, emitDecisions...)
	for _, d := range decisions {
		s.rec.IncDecision(string(d.Outcome), string(d.Reason))
	}
	return decisions, err
}

// computeCandidates is the side-effect-free part of a pass for one plant:
// resolve, cadence, window. It touches only read paths and may run in
// parallel with other plants.
func (s *Scheduler) computeCandidates(ctx context.Context, plant PlantRef, global *types.GlobalPolicy, weather *types.WeatherContext, now time.Time) ([]Candidate, []Decision, error) {
	plantPolicy, err := s.policies.PlantPolicy(ctx, plant.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load plant policy %s: %w", plant.ID, err)
	}
	if plantPolicy != nil && plantPolicy.DeliveryBlocked {
		s.log.Debug("Deliveries blocked for plant, skipping", "plant_id", plant.ID)
		return nil, nil, nil
	}

	var (
		candidates []Candidate
		decisions  []Decision
	)
	deferCounts := plantPolicy.WeatherDefer()

	for _, category := range types.CareCategories {
		pol := Resolve(category, global, plantPolicy)
		if !pol.Enabled {
			decisions = append(decisions, Decision{
				PlantID:  &plant.ID,
				Category: category,
				Outcome:  OutcomeSkipped,
				Reason:   types.SkipUserDisabled,
			})
			continue
		}

		pending, err := s.store.HasPending(ctx, plant.ID, category)
		if err != nil {
			return nil, nil, fmt.Errorf("check pending %s/%s: %w", plant.ID, category, err)
		}
		if pending {
			continue
		}

		last, err := s.history.LastActivity(ctx, plant.ID, category)
		if err != nil {
			return nil, nil, fmt.Errorf("load last activity %s/%s: %w", plant.ID, category, err)
		}

		cad := NextDue(CadenceInput{
			LastActivityAt: last,
			Policy:         pol,
			Weather:        weather,
			WeatherTTL:     s.cfg.WeatherTTL,
			Seasonal:       s.seasonal,
			DeferCount:     deferCounts[category],
			Now:            now,
		})

		priority := defaultPriority(category)
		placement := Place(cad.DueAt, pol, priority, now, s.cfg.Location)
		if placement.Skipped {
			decisions = append(decisions, s.persistSkip(ctx, plant, category, pol, priority, cad.DueAt, placement.Reason))
			continue
		}

		title, body := reminderCopy(category, plant.Name)
		candidates = append(candidates, Candidate{
			PlantID:      &plant.ID,
			PlantName:    plant.Name,
			Category:     category,
			Priority:     priority,
			ScheduledFor: placement.Time,
			Title:        title,
			Body:         body,
			Policy:       pol,
			Recurrence: &types.RecurrenceConfig{
				FrequencyDays: pol.BaseFrequencyDays,
			},
			WeatherDeferred: cad.WeatherDeferred,
		})
	}
	return candidates, decisions, nil
}

// admit runs QuotaGuard over all candidates under the single serialization
// point, keeping its counters current as it goes so no ordering of concurrent
// candidates can jointly exceed the caps.
func (s *Scheduler) admit(ctx context.Context, candidates []Candidate, now time.Time) ([]Candidate, []Decision, error) {
	s.admitMu.Lock()
	defer s.admitMu.Unlock()

	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-24 * time.Hour)

	globalHour, err := s.store.CountDelivered(ctx, nil, hourAgo)
	if err != nil {
		return nil, nil, fmt.Errorf("count deliveries: %w", err)
	}
	globalDay, err := s.store.CountDelivered(ctx, nil, dayAgo)
	if err != nil {
		return nil, nil, fmt.Errorf("count deliveries: %w", err)
	}

	type plantCounts struct {
		day int64
	}
	perPlant := map[uuid.UUID]*plantCounts{}
	countsFor := func(plantID *uuid.UUID) (*plantCounts, error) {
		if plantID == nil {
			return &plantCounts{}, nil
		}
		if pc, ok := perPlant[*plantID]; ok {
			return pc, nil
		}
		d, err := s.store.CountDelivered(ctx, plantID, dayAgo)
		if err != nil {
			return nil, err
		}
		pc := &plantCounts{day: d}
		perPlant[*plantID] = pc
		return pc, nil
	}

	var (
		admitted  []Candidate
		decisions []Decision
	)
	gh, gd := int(globalHour), int(globalDay)

	for _, c := range candidates {
		pc, err := countsFor(c.PlantID)
		if err != nil {
			return admitted, decisions, fmt.Errorf("count plant deliveries: %w", err)
		}

		var lastSame *time.Time
		if c.PlantID != nil {
			lastSame, err = s.store.LastDelivery(ctx, *c.PlantID, c.Category)
			if err != nil {
				return admitted, decisions, fmt.Errorf("load last delivery: %w", err)
			}
		}

		res := Admit(c, DeliveryStats{
			GlobalHour:       gh,
			GlobalDay:        gd,
			PlantDay:         int(pc.day),
			LastSameCategory: lastSame,
		}, now)

		switch res.Status {
		case AdmitSkipped:
			decisions = append(decisions, s.persistSkipCandidate(ctx, c, res.Reason))
		case AdmitDeferred:
			c.ScheduledFor = res.NextSlot
			admitted = append(admitted, c)
			decisions = append(decisions, Decision{
				PlantID:      c.PlantID,
				Category:     c.Category,
				Outcome:      OutcomeDeferred,
				ScheduledFor: res.NextSlot,
			})
			gh++
			gd++
			pc.day++
		case AdmitAdmitted:
			admitted = append(admitted, c)
			gh++
			gd++
			pc.day++
		}
	}
	return admitted, decisions, nil
}

// emit batches the admitted candidates, persists them and hands them to the
// transport. Transport failures leave the record unhanded; the next pass
// retries rather than blocking this one.
func (s *Scheduler) emit(ctx context.Context, admitted []Candidate) ([]Decision, error) {
	var decisions []Decision
	for _, e := range Aggregate(admitted, s.cfg.BatchWindowMinutes) {
		if e.Batch != nil {
			decs, err := s.emitBatch(ctx, e.Batch)
			decisions = append(decisions, decs...)
			if err != nil {
				return decisions, err
			}
			continue
		}
		d, err := s.emitSingle(ctx, *e.Single)
		decisions = append(decisions, d)
		if err != nil {
			return decisions, err
		}
	}
	return decisions, nil
}

func (s *Scheduler) emitSingle(ctx context.Context, c Candidate) (Decision, error) {
	n := s.buildNotification(c, nil)
	if err := s.store.Create(ctx, n); err != nil {
		return Decision{}, fmt.Errorf("persist notification: %w", err)
	}
	s.bumpWeatherDefer(ctx, c)

	handle, err := s.scheduleWithTransport(ctx, PushPayload{
		NotificationID: n.ID,
		PlantID:        n.PlantID,
		Category:       n.Category,
		Priority:       n.Priority,
		Title:          n.Title,
		Body:           n.Body,
		ScheduledFor:   n.ScheduledFor,
	})
	if err != nil {
		s.log.Warn("Transport hand-off failed, will retry next pass", "notification_id", n.ID, "error", err)
	} else {
		s.markHanded(ctx, n.ID, handle)
	}
	return Decision{
		PlantID:        c.PlantID,
		Category:       c.Category,
		Outcome:        OutcomeAdmitted,
		ScheduledFor:   n.ScheduledFor,
		NotificationID: n.ID,
		Status:         types.StatusScheduled,
	}, nil
}

func (s *Scheduler) emitBatch(ctx context.Context, b *CandidateBatch) ([]Decision, error) {
	batch := &types.NotificationBatch{
		ID:           uuid.New(),
		Category:     b.Category,
		ScheduledFor: b.ScheduledFor,
		Title:        b.Title,
		Body:         b.Body,
		Status:       types.StatusScheduled,
	}

	var decisions []Decision
	memberIDs := make([]uuid.UUID, 0, len(b.Members))
	for _, m := range b.Members {
		n := s.buildNotification(m, &batch.ID)
		if err := s.store.Create(ctx, n); err != nil {
			return decisions, fmt.Errorf("persist batch member: %w", err)
		}
		s.bumpWeatherDefer(ctx, m)
		memberIDs = append(memberIDs, n.ID)
		decisions = append(decisions, Decision{
			PlantID:        m.PlantID,
			Category:       m.Category,
			Outcome:        OutcomeAdmitted,
			ScheduledFor:   n.ScheduledFor,
			NotificationID: n.ID,
			BatchID:        &batch.ID,
			Status:         types.StatusScheduled,
		})
	}
	batch.SetMemberIDs(memberIDs)
	if err := s.store.CreateBatch(ctx, batch); err != nil {
		return decisions, fmt.Errorf("persist batch: %w", err)
	}

	handle, err := s.scheduleWithTransport(ctx, PushPayload{
		BatchID:      &batch.ID,
		Category:     batch.Category,
		Priority:     types.PriorityMedium,
		Title:        batch.Title,
		Body:         batch.Body,
		ScheduledFor: batch.ScheduledFor,
	})
	if err != nil {
		s.log.Warn("Batch transport hand-off failed, will retry next pass", "batch_id", batch.ID, "error", err)
		return decisions, nil
	}
	batch.DeliveryHandle = handle
	if err := s.store.UpdateBatchStatus(ctx, batch, types.StatusScheduled); err != nil {
		s.log.Warn("Failed to save batch handle", "batch_id", batch.ID, "error", err)
	}
	for _, id := range memberIDs {
		s.markHanded(ctx, id, handle)
	}
	return decisions, nil
}

func (s *Scheduler) buildNotification(c Candidate, batchID *uuid.UUID) *types.ScheduledNotification {
	n := &types.ScheduledNotification{
		ID:             uuid.New(),
		PlantID:        c.PlantID,
		Category:       c.Category,
		ScheduledFor:   c.ScheduledFor,
		Title:          c.Title,
		Body:           c.Body,
		Priority:       c.Priority,
		Status:         types.StatusScheduled,
		DeliveryStatus: types.DeliveryPending,
		BatchID:        batchID,
	}
	n.SetRecurrence(c.Recurrence)
	return n
}

func (s *Scheduler) scheduleWithTransport(ctx context.Context, payload PushPayload) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, s.cfg.TransportTimeout)
	defer cancel()
	return s.transport.Schedule(tctx, payload)
}

func (s *Scheduler) markHanded(ctx context.Context, id uuid.UUID, handle string) {
	ok, err := s.store.UpdateStatusIf(ctx, id,
		[]types.NotificationStatus{types.StatusScheduled},
		map[string]any{
			"delivery_handle": handle,
			"delivery_status": types.DeliverySent,
			"last_attempt":    s.cfg.Now(),
			"updated_at":      s.cfg.Now(),
		})
	if err != nil {
		s.log.Warn("Failed to record transport handle", "notification_id", id, "error", err)
		return
	}
	if !ok {
		// Cancelled between persist and hand-off; undo on the transport side.
		if cerr := s.transport.Cancel(ctx, handle); cerr != nil {
			s.log.Warn("Failed to cancel orphaned handle", "handle", handle, "error", cerr)
		}
	}
}

func (s *Scheduler) bumpWeatherDefer(ctx context.Context, c Candidate) {
	if c.PlantID == nil {
		return
	}
	plantPolicy, err := s.policies.PlantPolicy(ctx, *c.PlantID)
	if err != nil || plantPolicy == nil {
		return
	}
	counts := plantPolicy.WeatherDefer()
	if c.WeatherDeferred {
		counts[c.Category]++
	} else if counts[c.Category] != 0 {
		counts[c.Category] = 0
	} else {
		return
	}
	if err := s.policies.SetWeatherDefer(ctx, *c.PlantID, counts); err != nil {
		s.log.Warn("Failed to persist weather deferral count", "plant_id", *c.PlantID, "error", err)
	}
}

// retryUnhanded re-attempts the transport hand-off for scheduled rows whose
// previous hand-off failed or was backed off.
func (s *Scheduler) retryUnhanded(ctx context.Context) {
	rows, err := s.store.ListUnhanded(ctx, 100)
	if err != nil {
		s.log.Warn("Failed to list unhanded notifications", "error", err)
		return
	}
	for _, n := range rows {
		handle, err := s.scheduleWithTransport(ctx, PushPayload{
			NotificationID: n.ID,
			PlantID:        n.PlantID,
			Category:       n.Category,
			Priority:       n.Priority,
			Title:          n.Title,
			Body:           n.Body,
			ScheduledFor:   n.ScheduledFor,
		})
		if err != nil {
			s.log.Warn("Transport retry failed", "notification_id", n.ID, "error", err)
			continue
		}
		s.markHanded(ctx, n.ID, handle)
	}
}

func (s *Scheduler) persistSkip(ctx context.Context, plant PlantRef, category types.Category, pol EffectivePolicy, priority types.Priority, dueAt time.Time, reason types.SkipReason) Decision {
	title, body := reminderCopy(category, plant.Name)
	return s.persistSkipCandidate(ctx, Candidate{
		PlantID:      &plant.ID,
		PlantName:    plant.Name,
		Category:     category,
		Priority:     priority,
		ScheduledFor: dueAt,
		Title:        title,
		Body:         body,
		Policy:       pol,
		Recurrence: &types.RecurrenceConfig{
			FrequencyDays: pol.BaseFrequencyDays,
		},
	}, reason)
}

// persistSkipCandidate records a skipped candidate, then arms the next cycle
// with the skipped occurrence as the cadence baseline so later passes move on
// instead of relitigating the same occurrence.
func (s *Scheduler) persistSkipCandidate(ctx context.Context, c Candidate, reason types.SkipReason) Decision {
	d, n := s.recordSkip(ctx, c, reason)
	if n.IsRecurring {
		s.rescheduleRecurring(ctx, n, c.ScheduledFor)
	}
	return d
}

// recordSkip writes the skip record so the outcome and reason stay observable,
// and reports the decision. It never re-arms; rescheduleRecurring calls it for
// a next occurrence that itself cannot be placed.
func (s *Scheduler) recordSkip(ctx context.Context, c Candidate, reason types.SkipReason) (Decision, *types.ScheduledNotification) {
	n := s.buildNotification(c, nil)
	n.Status = types.StatusSkipped
	n.DeliveryStatus = types.DeliverySkipped
	n.SkipReason = reason
	if err := s.store.Create(ctx, n); err != nil {
		s.log.Warn("Failed to persist skip record", "plant_id", c.PlantID, "category", c.Category, "error", err)
	}
	return Decision{
		PlantID:        c.PlantID,
		Category:       c.Category,
		Outcome:        OutcomeSkipped,
		Reason:         reason,
		ScheduledFor:   c.ScheduledFor,
		NotificationID: n.ID,
		Status:         types.StatusSkipped,
	}, n
}

// HandleOutcome reconciles an asynchronous transport callback. Member rows of
// a batch carry the batch's shared handle, so the batch lookup must run first
// or a combined outcome would land on one arbitrary member. A handle the store
// no longer recognizes is a benign no-op: the record was cancelled locally
// after the hand-off.
func (s *Scheduler) HandleOutcome(ctx context.Context, handle string, outcome Outcome) error {
	s.rec.IncOutcome(string(outcome.Kind))

	batch, err := s.store.GetBatchByHandle(ctx, handle)
	if err == nil {
		return s.applyBatchOutcome(ctx, batch, outcome)
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return fmt.Errorf("load batch by handle: %w", err)
	}

	n, nerr := s.store.GetByHandle(ctx, handle)
	if nerr != nil {
		if errors.Is(nerr, repos.ErrNotFound) {
			s.log.Debug("Outcome for unknown handle, ignoring", "handle", handle)
			return nil
		}
		return fmt.Errorf("load notification by handle: %w", nerr)
	}
	return s.applyOutcome(ctx, n, outcome)
}

func (s *Scheduler) applyBatchOutcome(ctx context.Context, batch *types.NotificationBatch, outcome Outcome) error {
	status := types.StatusDelivered
	if outcome.Kind == OutcomeFailed {
		status = types.StatusFailed
	}
	if outcome.Kind != OutcomeInteraction {
		if err := s.store.UpdateBatchStatus(ctx, batch, status); err != nil {
			s.log.Warn("Failed to update batch status", "batch_id", batch.ID, "error", err)
		}
	}
	for _, id := range batch.MemberIDs() {
		member, err := s.store.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repos.ErrNotFound) {
				continue
			}
			return fmt.Errorf("load batch member %s: %w", id, err)
		}
		if err := s.applyOutcome(ctx, member, outcome); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) applyOutcome(ctx context.Context, n *types.ScheduledNotification, outcome Outcome) error {
	now := s.cfg.Now()
	at := outcome.At
	if at.IsZero() {
		at = now
	}

	switch outcome.Kind {
	case OutcomeDelivered:
		ok, err := s.store.UpdateStatusIf(ctx, n.ID,
			[]types.NotificationStatus{types.StatusScheduled},
			map[string]any{
				"status":          types.StatusDelivered,
				"delivery_status": types.DeliveryDelivered,
				"delivered_at":    at,
				"last_attempt":    at,
				"updated_at":      now,
			})
		if err != nil {
			return fmt.Errorf("mark delivered: %w", err)
		}
		if !ok {
			return nil
		}
		s.resetWeatherDefer(ctx, n)
		if n.IsRecurring {
			s.rescheduleRecurring(ctx, n, at)
		}
		return nil

	case OutcomeInteraction:
		// Set-once is enforced in the store's guarded update; a pre-read
		// here could go stale between two concurrent callbacks.
		if _, err := s.store.RecordInteraction(ctx, n.ID, outcome.Interaction, at); err != nil {
			return fmt.Errorf("record interaction: %w", err)
		}
		return nil

	case OutcomeFailed:
		attempts := n.AttemptCount + 1
		if outcome.Transient && attempts < s.cfg.MaxAttempts {
			backoff := s.cfg.RetryBackoffBase * (1 << attempts)
			if backoff > s.cfg.MaxRetryBackoff {
				backoff = s.cfg.MaxRetryBackoff
			}
			_, err := s.store.UpdateStatusIf(ctx, n.ID,
				[]types.NotificationStatus{types.StatusScheduled},
				map[string]any{
					"attempt_count":   attempts,
					"last_attempt":    at,
					"error_message":   outcome.ErrorMessage,
					"scheduled_for":   now.Add(backoff),
					"delivery_handle": "",
					"delivery_status": types.DeliveryPending,
					"updated_at":      now,
				})
			if err != nil {
				return fmt.Errorf("back off retry: %w", err)
			}
			return nil
		}
		_, err := s.store.UpdateStatusIf(ctx, n.ID,
			[]types.NotificationStatus{types.StatusScheduled},
			map[string]any{
				"status":          types.StatusFailed,
				"delivery_status": types.DeliveryFailed,
				"attempt_count":   attempts,
				"last_attempt":    at,
				"error_message":   outcome.ErrorMessage,
				"updated_at":      now,
			})
		if err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		if !outcome.Transient && n.PlantID != nil {
			// Permission revoked or similar: stop scheduling for the plant
			// until the user re-grants.
			if berr := s.policies.SetDeliveryBlocked(ctx, *n.PlantID, true); berr != nil {
				s.log.Warn("Failed to block deliveries for plant", "plant_id", *n.PlantID, "error", berr)
			}
		}
		return nil
	}
	return nil
}

func (s *Scheduler) resetWeatherDefer(ctx context.Context, n *types.ScheduledNotification) {
	if n.PlantID == nil {
		return
	}
	plantPolicy, err := s.policies.PlantPolicy(ctx, *n.PlantID)
	if err != nil || plantPolicy == nil {
		return
	}
	counts := plantPolicy.WeatherDefer()
	if counts[n.Category] == 0 {
		return
	}
	counts[n.Category] = 0
	if err := s.policies.SetWeatherDefer(ctx, *n.PlantID, counts); err != nil {
		s.log.Warn("Failed to reset weather deferral count", "plant_id", *n.PlantID, "error", err)
	}
}

// rescheduleRecurring arms the next cycle after a terminal delivered/skipped
// occurrence, with the occurrence time as the new cadence baseline.
func (s *Scheduler) rescheduleRecurring(ctx context.Context, n *types.ScheduledNotification, baseline time.Time) {
	rc := n.Recurrence()
	if rc == nil || n.PlantID == nil {
		return
	}
	next := *rc
	next.CurrentOccurrence++
	if next.MaxOccurrences != nil && next.CurrentOccurrence >= *next.MaxOccurrences {
		return
	}
	if next.EndDate != nil && baseline.After(*next.EndDate) {
		return
	}

	global, err := s.policies.GlobalPolicy(ctx)
	if err != nil || global == nil || !global.Enabled {
		return
	}
	plantPolicy, err := s.policies.PlantPolicy(ctx, *n.PlantID)
	if err != nil {
		return
	}
	pol := Resolve(n.Category, global, plantPolicy)
	if !pol.Enabled {
		return
	}

	now := s.cfg.Now()
	cad := NextDue(CadenceInput{
		LastActivityAt: &baseline,
		Policy:         pol,
		Weather:        s.weather.Snapshot(),
		WeatherTTL:     s.cfg.WeatherTTL,
		Seasonal:       s.seasonal,
		DeferCount:     plantPolicy.WeatherDefer()[n.Category],
		Now:            now,
	})
	placement := Place(cad.DueAt, pol, n.Priority, now, s.cfg.Location)
	if placement.Skipped {
		// recordSkip, not persistSkipCandidate: re-arming stops after one
		// level so an unplaceable follow-up cannot cascade.
		s.recordSkip(ctx, Candidate{
			PlantID:      n.PlantID,
			Category:     n.Category,
			Priority:     n.Priority,
			ScheduledFor: cad.DueAt,
			Title:        n.Title,
			Body:         n.Body,
			Policy:       pol,
			Recurrence:   &next,
		}, placement.Reason)
		return
	}

	if _, err := s.emitSingle(ctx, Candidate{
		PlantID:         n.PlantID,
		Category:        n.Category,
		Priority:        n.Priority,
		ScheduledFor:    placement.Time,
		Title:           n.Title,
		Body:            n.Body,
		Policy:          pol,
		Recurrence:      &next,
		WeatherDeferred: cad.WeatherDeferred,
	}); err != nil {
		s.log.Warn("Failed to arm next recurrence", "notification_id", n.ID, "error", err)
	}
}

// CancelAllForPlant cancels every non-terminal notification for the plant.
// Idempotent: a second call finds nothing left to cancel.
func (s *Scheduler) CancelAllForPlant(ctx context.Context, plantID uuid.UUID) error {
	handles, err := s.store.CancelAllForPlant(ctx, plantID)
	if err != nil {
		return fmt.Errorf("cancel notifications for plant %s: %w", plantID, err)
	}
	for _, handle := range handles {
		tctx, cancel := context.WithTimeout(ctx, s.cfg.TransportTimeout)
		if cerr := s.transport.Cancel(tctx, handle); cerr != nil {
			// The local record is already cancelled; past-due handles are a
			// no-op on the transport side anyway.
			s.log.Warn("Transport cancel failed", "handle", handle, "error", cerr)
		}
		cancel()
	}
	return nil
}

// CancelPendingFor cancels the pending reminder for one plant+category, e.g.
// when a manual activity log satisfies it early.
func (s *Scheduler) CancelPendingFor(ctx context.Context, handle string) {
	if handle == "" {
		return
	}
	tctx, cancel := context.WithTimeout(ctx, s.cfg.TransportTimeout)
	defer cancel()
	if err := s.transport.Cancel(tctx, handle); err != nil {
		s.log.Warn("Transport cancel failed", "handle", handle, "error", err)
	}
}

func defaultPriority(category types.Category) types.Priority {
	switch category {
	case types.CategoryWatering:
		return types.PriorityMedium
	case types.CategoryAlert:
		return types.PriorityHigh
	default:
		return types.PriorityLow
	}
}

func reminderCopy(category types.Category, plantName string) (string, string) {
	if plantName == "" {
		plantName = "your plant"
	}
	switch category {
	case types.CategoryWatering:
		return "Time to water " + plantName, plantName + " is due for watering."
	case types.CategoryFertilizer:
		return "Fertilize " + plantName, plantName + " is due for fertilizer."
	case types.CategoryHealthCheck:
		return "Check on " + plantName, "Give " + plantName + " a quick health check."
	}
	return "Plant care reminder", plantName + " needs attention."
}
