package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/repos/testutil"
	"github.com/yungbote/filatrack-backend/internal/types"
)

func TestIncrementDailyAccumulates(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()
	at := time.Date(2099, 3, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := env.analytics.IncrementDaily(ctx, at, types.AnalyticsDeltas{SignUps: 1, LogsCreated: 2}); err != nil {
			t.Fatalf("IncrementDaily: %v", err)
		}
	}

	entry, err := env.analyticsRepo.GetByDate(ctx, env.tx, "2099-03-14")
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if entry == nil {
		t.Fatalf("no entry created")
	}
	if entry.SignUps != 3 || entry.LogsCreated != 6 || entry.BoxesCreated != 0 {
		t.Fatalf("entry = %+v, want sign_ups 3 logs_created 6", entry)
	}
}

// The increment must survive concurrent callers on separate connections,
// so this test runs against the database directly instead of the per-test
// transaction.
func TestIncrementDailyConcurrent(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	repo := repos.NewAnalyticsRepo(db, log)

	const date = "2099-12-31"
	t.Cleanup(func() {
		db.Where("date = ?", date).Delete(&types.AnalyticsEntry{})
	})

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementDaily(context.Background(), nil, date, types.AnalyticsDeltas{SignUps: 1})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("IncrementDaily: %v", err)
		}
	}

	entry, err := repo.GetByDate(context.Background(), nil, date)
	if err != nil || entry == nil {
		t.Fatalf("GetByDate: entry=%v err=%v", entry, err)
	}
	if entry.SignUps != n {
		t.Fatalf("sign_ups = %d, want %d (lost increments)", entry.SignUps, n)
	}
}

func TestAnalyticsAdminGate(t *testing.T) {
	env := newTestEnv(t)
	plain := testutil.SeedUser(t, t.Context(), env.tx, "gate-user@example.com")
	admin := testutil.SeedAdmin(t, t.Context(), env.tx, "gate-admin@example.com")

	_, err := env.analytics.GetTotals(userCtx(plain))
	wantCode(t, err, apierr.CodeNotAuthorized)
	_, err = env.analytics.GetEntry(userCtx(plain), time.Now())
	wantCode(t, err, apierr.CodeNotAuthorized)
	_, err = env.analytics.GetRange(userCtx(plain), time.Now(), time.Now())
	wantCode(t, err, apierr.CodeNotAuthorized)
	_, err = env.analytics.GetAuthMethodStats(userCtx(plain))
	wantCode(t, err, apierr.CodeNotAuthorized)

	// Admin asking for a day with no entry gets NotFound, not an empty row.
	_, err = env.analytics.GetEntry(userCtx(admin), time.Date(2098, 1, 1, 0, 0, 0, 0, time.UTC))
	wantCode(t, err, apierr.CodeNotFound)
}

// GetTotals fans its counts out over the connection pool, so it needs the
// real database handle rather than the per-test transaction.
func TestGetTotals(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewAnalyticsService(db, log,
		repos.NewAnalyticsRepo(db, log),
		repos.NewUserRepo(db, log),
		repos.NewFilamentRepo(db, log),
		repos.NewFilamentLogRepo(db, log),
		repos.NewBoxRepo(db, log),
		repos.NewAccountRepo(db, log),
	)

	admin := &types.User{ID: uuid.New(), Role: types.RoleAdmin}
	totals, err := svc.GetTotals(userCtx(admin))
	if err != nil {
		t.Fatalf("GetTotals: %v", err)
	}
	if totals.Users < 0 || totals.Filament < 0 || totals.Logs < 0 || totals.Boxes < 0 {
		t.Fatalf("totals = %+v", totals)
	}
}
