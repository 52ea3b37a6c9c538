package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Box is an ordered container of filament. FilamentIDs is a denormalized
// view of the filament rows whose BoxID points here; the two are only ever
// written together inside one transaction.
type Box struct {
	ID          uuid.UUID                      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID                      `gorm:"index;not null;column:user_id" json:"user_id"`
	User        *User                          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Name        string                         `gorm:"not null;column:name" json:"name"`
	Index       int                            `gorm:"not null;default:0;column:index" json:"index"`
	FilamentIDs datatypes.JSONSlice[uuid.UUID] `gorm:"column:filament_ids" json:"filament_ids"`
	CreatedAt   time.Time                      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time                      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Box) TableName() string {
	return "boxes"
}
