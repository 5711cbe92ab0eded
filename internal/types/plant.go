package types

import (
	"time"

	"github.com/google/uuid"
)

type Plant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Species   string    `gorm:"column:species" json:"species"`
	Location  string    `gorm:"column:location" json:"location"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Plant) TableName() string {
	return "plant"
}
