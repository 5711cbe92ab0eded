package types

import (
	"time"

	"github.com/google/uuid"
)

// CareActivity is a log entry recording that a care action was performed for a
// plant. The most recent entry per (plant, category) is the cadence baseline.
type CareActivity struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlantID     uuid.UUID `gorm:"type:uuid;not null;index;column:plant_id" json:"plant_id"`
	Category    Category  `gorm:"not null;column:category" json:"category"`
	PerformedAt time.Time `gorm:"not null;index;column:performed_at" json:"performed_at"`
	Note        string    `gorm:"column:note" json:"note"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (CareActivity) TableName() string {
	return "care_activity"
}
