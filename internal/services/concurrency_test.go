package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/repos/testutil"
	"github.com/yungbote/filatrack-backend/internal/types"
)

// dbEnv builds the service graph on the pooled database handle. Concurrency
// tests need real parallel transactions, which the per-test transaction
// cannot provide, so everything they create is cleaned up per test.
type dbEnv struct {
	db *gorm.DB

	userRepo     repos.UserRepo
	boxRepo      repos.BoxRepo
	filamentRepo repos.FilamentRepo

	box      BoxService
	filament FilamentService
}

func newDBEnv(t *testing.T) *dbEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	env := &dbEnv{
		db:           db,
		userRepo:     repos.NewUserRepo(db, log),
		boxRepo:      repos.NewBoxRepo(db, log),
		filamentRepo: repos.NewFilamentRepo(db, log),
	}
	logRepo := repos.NewFilamentLogRepo(db, log)
	accountRepo := repos.NewAccountRepo(db, log)
	analyticsRepo := repos.NewAnalyticsRepo(db, log)
	ordering := NewOrderingService(log, env.boxRepo, env.filamentRepo)
	analytics := NewAnalyticsService(db, log, analyticsRepo, env.userRepo, env.filamentRepo, logRepo, env.boxRepo, accountRepo)
	env.box = NewBoxService(db, log, env.userRepo, env.boxRepo, env.filamentRepo, ordering, analytics)
	env.filament = NewFilamentService(db, log, env.userRepo, env.filamentRepo, logRepo, env.boxRepo, ordering, analytics, nil)
	return env
}

func (env *dbEnv) seedUser(t *testing.T, email string) *types.User {
	t.Helper()
	u := testutil.SeedUser(t, t.Context(), env.db, email)
	t.Cleanup(func() {
		env.db.Where("id = ?", u.ID).Delete(&types.User{})
	})
	return u
}

// Two adds that race on the same box must both land in filament_ids: the
// second writer has to see the first's committed list, not the list both
// read before either wrote.
func TestAddFilamentConcurrentKeepsRelationship(t *testing.T) {
	env := newDBEnv(t)
	ctx := t.Context()
	u := env.seedUser(t, "race-add@example.com")
	box := testutil.SeedBox(t, ctx, env.db, u.ID, "Race Box", 0)

	const n = 6
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		ids[i] = testutil.SeedFilament(t, ctx, env.db, u.ID, nil, fmt.Sprintf("Spool %d", i), i).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := env.box.AddFilament(userCtx(u), box.ID, id)
			errs <- err
		}(ids[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("AddFilament: %v", err)
		}
	}

	boxes, err := env.boxRepo.GetByIDs(ctx, nil, []uuid.UUID{box.ID})
	if err != nil || len(boxes) == 0 {
		t.Fatalf("reload box: err=%v", err)
	}
	if len(boxes[0].FilamentIDs) != n {
		t.Fatalf("filament_ids has %d entries, want %d (lost update): %v", len(boxes[0].FilamentIDs), n, boxes[0].FilamentIDs)
	}
	listed := make(map[uuid.UUID]bool, n)
	for _, id := range boxes[0].FilamentIDs {
		listed[id] = true
	}
	for _, id := range ids {
		if !listed[id] {
			t.Fatalf("filament %s attached but missing from filament_ids", id)
		}
	}

	scope, err := env.filamentRepo.GetScope(ctx, nil, u.ID, &box.ID)
	if err != nil || len(scope) != n {
		t.Fatalf("box scope: err=%v len=%d", err, len(scope))
	}
	for i, f := range scope {
		if f.Index != i {
			t.Fatalf("box scope index %d = %d, want %d", i, f.Index, i)
		}
	}
	if unboxed, err := env.filamentRepo.GetScope(ctx, nil, u.ID, nil); err != nil || len(unboxed) != 0 {
		t.Fatalf("unboxed scope after moves: err=%v len=%d", err, len(unboxed))
	}
}

// Concurrent creates all append to the unboxed list; none of them may claim
// the same position.
func TestFilamentCreateConcurrentAssignsDistinctIndexes(t *testing.T) {
	env := newDBEnv(t)
	ctx := t.Context()
	u := env.seedUser(t, "race-create@example.com")

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.filament.Create(userCtx(u), CreateFilamentParams{
				Name:         fmt.Sprintf("Spool %d", i),
				CurrentMass:  1000,
				StartingMass: 1000,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	scope, err := env.filamentRepo.GetScope(ctx, nil, u.ID, nil)
	if err != nil || len(scope) != n {
		t.Fatalf("unboxed scope: err=%v len=%d", err, len(scope))
	}
	seen := make(map[int]bool, n)
	for i, f := range scope {
		if f.Index != i {
			t.Fatalf("scope position %d has index %d (duplicate or gap)", i, f.Index)
		}
		seen[f.Index] = true
	}
	if len(seen) != n {
		t.Fatalf("indexes not distinct: %d unique of %d", len(seen), n)
	}
}
