package types

import (
	"time"

	"github.com/google/uuid"
)

// Filament is one spool. BoxID is null while the spool sits in the unboxed
// list; Index orders the spool within whichever scope currently holds it.
type Filament struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ShortID string    `gorm:"uniqueIndex;not null;column:short_id" json:"short_id"`
	UserID  uuid.UUID `gorm:"index;not null;column:user_id" json:"user_id"`
	User    *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Index   int       `gorm:"not null;default:0;column:index" json:"index"`

	Name     string `gorm:"not null;column:name" json:"name"`
	Brand    string `gorm:"not null;column:brand" json:"brand"`
	Color    string `gorm:"not null;column:color" json:"color"`
	Material string `gorm:"not null;column:material" json:"material"`
	Note     string `gorm:"column:note" json:"note"`

	CurrentMass  int `gorm:"not null;column:current_mass" json:"current_mass"`
	StartingMass int `gorm:"not null;column:starting_mass" json:"starting_mass"`

	BoxID *uuid.UUID `gorm:"index;column:box_id" json:"box_id"`
	Box   *Box       `gorm:"constraint:OnDelete:SET NULL;foreignKey:BoxID;references:ID" json:"-"`

	LastUsed time.Time `gorm:"column:last_used" json:"last_used"`

	PrintingTemperature *int     `gorm:"column:printing_temperature" json:"printing_temperature,omitempty"`
	Diameter            *float64 `gorm:"column:diameter" json:"diameter,omitempty"`
	Cost                *float64 `gorm:"column:cost" json:"cost,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Filament) TableName() string {
	return "filament"
}

// FilamentLog is an append-only usage record. Rows are never updated; they
// are only deleted when the parent filament goes away.
type FilamentLog struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FilamentID   uuid.UUID `gorm:"index;not null;column:filament_id" json:"filament_id"`
	Filament     *Filament `gorm:"constraint:OnDelete:CASCADE;foreignKey:FilamentID;references:ID" json:"-"`
	FilamentUsed int       `gorm:"not null;column:filament_used" json:"filament_used"`
	Note         *string   `gorm:"column:note" json:"note,omitempty"`
	PreviousMass *int      `gorm:"column:previous_mass" json:"previous_mass,omitempty"`
	NewMass      *int      `gorm:"column:new_mass" json:"new_mass,omitempty"`
	Time         time.Time `gorm:"not null;default:now();column:time" json:"time"`
}

func (FilamentLog) TableName() string {
	return "filament_log"
}
