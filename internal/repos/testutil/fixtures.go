package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/types"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Test User",
		Role:     types.RoleUser,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Test Admin",
		Role:     types.RoleAdmin,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed admin: %v", err)
	}
	return u
}

func SeedBox(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string, index int) *types.Box {
	tb.Helper()
	b := &types.Box{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Index:       index,
		FilamentIDs: datatypes.NewJSONSlice([]uuid.UUID{}),
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed box: %v", err)
	}
	return b
}

// SeedFilament creates a spool in the given scope (nil boxID means unboxed).
// It does not touch the box's filament id list; tests that need the
// denormalized list in sync should seed through the services instead.
func SeedFilament(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, boxID *uuid.UUID, name string, index int) *types.Filament {
	tb.Helper()
	f := &types.Filament{
		ID:           uuid.New(),
		ShortID:      fmt.Sprintf("%.8s", uuid.NewString()),
		UserID:       userID,
		Name:         name,
		Brand:        "Generic",
		Color:        "#000000",
		Material:     "PLA",
		CurrentMass:  1000,
		StartingMass: 1000,
		BoxID:        boxID,
		Index:        index,
		LastUsed:     time.Unix(0, 0).UTC(),
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed filament: %v", err)
	}
	return f
}
