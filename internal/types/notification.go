package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecurrenceConfig describes how a recurring notification re-arms after a
// terminal delivered/skipped occurrence.
type RecurrenceConfig struct {
	FrequencyDays     int        `json:"frequency_days"`
	EndDate           *time.Time `json:"end_date,omitempty"`
	MaxOccurrences    *int       `json:"max_occurrences,omitempty"`
	CurrentOccurrence int        `json:"current_occurrence"`
}

// ScheduledNotification is the durable record of a reminder handed (or about to
// be handed) to the delivery transport. Created by the scheduler, mutated only
// by delivery callbacks or explicit cancellation, retained after terminal state
// for history.
type ScheduledNotification struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlantID      *uuid.UUID `gorm:"type:uuid;index;column:plant_id" json:"plant_id,omitempty"`
	Category     Category   `gorm:"not null;index;column:category" json:"category"`
	ScheduledFor time.Time  `gorm:"not null;index;column:scheduled_for" json:"scheduled_for"`
	Title        string     `gorm:"not null;column:title" json:"title"`
	Body         string     `gorm:"column:body" json:"body"`
	Priority     Priority   `gorm:"not null;default:'medium';column:priority" json:"priority"`

	IsRecurring    bool           `gorm:"not null;default:false;column:is_recurring" json:"is_recurring"`
	RecurrenceJSON datatypes.JSON `gorm:"column:recurrence;type:jsonb" json:"recurrence,omitempty"`

	Status NotificationStatus `gorm:"not null;default:'scheduled';index;column:status" json:"status"`

	// Delivery record. AttemptCount only increases; a terminal delivery status
	// never transitions again except Interaction, set once after delivered.
	DeliveryStatus DeliveryStatus `gorm:"not null;default:'pending';column:delivery_status" json:"delivery_status"`
	AttemptCount   int            `gorm:"not null;default:0;column:attempt_count" json:"attempt_count"`
	LastAttempt    *time.Time     `gorm:"column:last_attempt" json:"last_attempt,omitempty"`
	ErrorMessage   string         `gorm:"column:error_message" json:"error_message,omitempty"`
	DeliveredAt    *time.Time     `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	InteractedAt   *time.Time     `gorm:"column:interacted_at" json:"interacted_at,omitempty"`
	Interaction    Interaction    `gorm:"column:interaction" json:"interaction,omitempty"`
	SkipReason     SkipReason     `gorm:"column:skip_reason" json:"skip_reason,omitempty"`

	// Handle returned by the transport; empty until the hand-off succeeds.
	DeliveryHandle string `gorm:"index;column:delivery_handle" json:"delivery_handle,omitempty"`

	// Set when the notification was folded into a combined delivery.
	BatchID *uuid.UUID `gorm:"type:uuid;index;column:batch_id" json:"batch_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ScheduledNotification) TableName() string {
	return "scheduled_notification"
}

func (n *ScheduledNotification) Recurrence() *RecurrenceConfig {
	if n == nil || len(n.RecurrenceJSON) == 0 {
		return nil
	}
	var rc RecurrenceConfig
	if err := json.Unmarshal(n.RecurrenceJSON, &rc); err != nil {
		return nil
	}
	return &rc
}

func (n *ScheduledNotification) SetRecurrence(rc *RecurrenceConfig) {
	if rc == nil {
		n.RecurrenceJSON = nil
		n.IsRecurring = false
		return
	}
	b, err := json.Marshal(rc)
	if err != nil {
		return
	}
	n.RecurrenceJSON = datatypes.JSON(b)
	n.IsRecurring = true
}

// NotificationBatch groups ≥2 notifications sharing a category and time bucket
// into one combined delivery. The transport outcome is applied uniformly to all
// members.
type NotificationBatch struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Category     Category           `gorm:"not null;column:category" json:"category"`
	ScheduledFor time.Time          `gorm:"not null;column:scheduled_for" json:"scheduled_for"`
	Title        string             `gorm:"not null;column:title" json:"title"`
	Body         string             `gorm:"column:body" json:"body"`
	MembersJSON  datatypes.JSON     `gorm:"column:members;type:jsonb" json:"members"`
	Status       NotificationStatus `gorm:"not null;default:'scheduled';column:status" json:"status"`

	DeliveryHandle string `gorm:"index;column:delivery_handle" json:"delivery_handle,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (NotificationBatch) TableName() string {
	return "notification_batch"
}

func (b *NotificationBatch) MemberIDs() []uuid.UUID {
	if b == nil || len(b.MembersJSON) == 0 {
		return nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(b.MembersJSON, &ids); err != nil {
		return nil
	}
	return ids
}

func (b *NotificationBatch) SetMemberIDs(ids []uuid.UUID) {
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	b.MembersJSON = datatypes.JSON(raw)
}
