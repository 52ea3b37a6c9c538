package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/requestdata"
)

// sessionUser resolves the caller's identity from the request context.
// A missing identity is always NotAuthenticated, never a panic or a guess.
func sessionUser(ctx context.Context) (*requestdata.RequestData, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.NotAuthenticated()
	}
	return rd, nil
}

// dateKey reduces a timestamp to the UTC calendar day the analytics table
// is keyed by.
func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func newShortID() string {
	return uuid.NewString()[:8]
}

// lockUserScopes takes the user's row lock for the rest of tx. New index
// positions come from counting the rows already in a scope, and row locks on
// those rows cannot stop a second transaction from inserting alongside them,
// so every transaction that changes scope membership or order serializes on
// the user row first. Transactions that also lock a box row always take the
// user lock before the box lock.
func lockUserScopes(ctx context.Context, tx *gorm.DB, userRepo repos.UserRepo, userID uuid.UUID) error {
	users, err := userRepo.GetByIDsForUpdate(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		return fmt.Errorf("lock user row: %w", err)
	}
	if len(users) == 0 {
		return apierr.NotAuthenticated()
	}
	return nil
}
