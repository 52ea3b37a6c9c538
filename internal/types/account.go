package types

import (
	"time"

	"github.com/google/uuid"
)

// Account records which authentication provider a user signed up through.
// One row per provider link; the admin dashboard aggregates these.
type Account struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"index;not null;column:user_id" json:"user_id"`
	User              *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Provider          string    `gorm:"not null;column:provider" json:"provider"`
	ProviderAccountID string    `gorm:"column:provider_account_id" json:"provider_account_id"`
	CreatedAt         time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Account) TableName() string {
	return "account"
}
