package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/types"
)

// Candidate is a reminder that survived resolution, cadence, and window
// planning and is awaiting admission.
type Candidate struct {
	PlantID      *uuid.UUID
	PlantName    string
	Category     types.Category
	Priority     types.Priority
	ScheduledFor time.Time
	Title        string
	Body         string
	Policy       EffectivePolicy
	Recurrence   *types.RecurrenceConfig
	// Set when rain pushed this cycle forward; persisted after admission.
	WeatherDeferred bool
}

// recurrenceDeadline is the instant the next cycle would supersede this
// candidate; a deferral past it turns into a skip. Zero means no deadline.
func (c Candidate) recurrenceDeadline() time.Time {
	if c.Recurrence == nil || c.Recurrence.FrequencyDays <= 0 {
		return time.Time{}
	}
	return c.ScheduledFor.Add(time.Duration(c.Recurrence.FrequencyDays) * 24 * time.Hour)
}

type DecisionOutcome string

const (
	OutcomeAdmitted DecisionOutcome = "admitted"
	OutcomeDeferred DecisionOutcome = "deferred"
	OutcomeSkipped  DecisionOutcome = "skipped"
)

// Decision is one schedule decision surfaced to callers of Evaluate.
type Decision struct {
	PlantID        *uuid.UUID               `json:"plant_id,omitempty"`
	Category       types.Category           `json:"category"`
	Outcome        DecisionOutcome          `json:"outcome"`
	Reason         types.SkipReason         `json:"reason,omitempty"`
	ScheduledFor   time.Time                `json:"scheduled_for,omitempty"`
	NotificationID uuid.UUID                `json:"notification_id,omitempty"`
	BatchID        *uuid.UUID               `json:"batch_id,omitempty"`
	Status         types.NotificationStatus `json:"status,omitempty"`
}
