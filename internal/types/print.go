package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Print records one finished print job and how much of each spool it used
// (filament id -> grams).
type Print struct {
	ID                uuid.UUID                          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID            uuid.UUID                          `gorm:"index;not null;column:user_id" json:"user_id"`
	User              *User                              `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Name              string                             `gorm:"not null;column:name" json:"name"`
	TimeHours         float64                            `gorm:"not null;column:time_hours" json:"time_hours"`
	TotalFilamentUsed int                                `gorm:"not null;column:total_filament_used" json:"total_filament_used"`
	FilamentUsed      datatypes.JSONType[map[string]int] `gorm:"column:filament_used" json:"filament_used"`
	CreatedAt         time.Time                          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time                          `gorm:"not null;default:now()" json:"updated_at"`
}

func (Print) TableName() string {
	return "prints"
}
