package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/repos/testutil"
)

func TestFilamentCreateAppendsToUnboxedScope(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "fil-create@example.com")
	ctx := userCtx(u)

	f1, err := env.filament.Create(ctx, CreateFilamentParams{
		Name: "First", Brand: "Generic", Color: "#111", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	f2, err := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Second", Brand: "Generic", Color: "#222", Material: "PLA",
		CurrentMass: 750, StartingMass: 750,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f1.Index != 0 || f2.Index != 1 {
		t.Fatalf("indexes = %d,%d, want 0,1", f1.Index, f2.Index)
	}
	if len(f1.ShortID) != 8 {
		t.Fatalf("short id %q, want 8 chars", f1.ShortID)
	}
	if f1.ShortID == f2.ShortID {
		t.Fatalf("short ids collided")
	}
}

func TestFilamentCreateRetriesShortIDCollision(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "fil-shortid@example.com")
	taken := testutil.SeedFilament(t, t.Context(), env.tx, u.ID, nil, "Taken", 0)

	fresh := newShortID()
	candidates := []string{taken.ShortID, fresh}
	env.filament.(*filamentService).genShortID = func() string {
		next := candidates[0]
		if len(candidates) > 1 {
			candidates = candidates[1:]
		}
		return next
	}

	created, err := env.filament.Create(userCtx(u), CreateFilamentParams{
		Name: "Retry", Brand: "Generic", Color: "#444", Material: "PLA",
		CurrentMass: 500, StartingMass: 500,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ShortID == taken.ShortID {
		t.Fatalf("create kept a colliding short id %q", created.ShortID)
	}
	if created.ShortID != fresh {
		t.Fatalf("short id = %q, want next candidate %q", created.ShortID, fresh)
	}
}

func TestFilamentCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "fil-valid@example.com")
	ctx := userCtx(u)

	_, err := env.filament.Create(ctx, CreateFilamentParams{Name: "", StartingMass: 100})
	wantCode(t, err, apierr.CodeInvalidField)

	_, err = env.filament.Create(ctx, CreateFilamentParams{Name: "X", StartingMass: 0})
	wantCode(t, err, apierr.CodeInvalidField)

	_, err = env.filament.Create(ctx, CreateFilamentParams{Name: "X", StartingMass: 100, CurrentMass: 200})
	wantCode(t, err, apierr.CodeInvalidField)
}

func TestFilamentLogUsage(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "fil-log@example.com")
	ctx := userCtx(u)

	f, err := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Spool", Brand: "Generic", Color: "#333", Material: "PLA",
		CurrentMass: 100, StartingMass: 1000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	entry, err := env.filament.LogUsage(ctx, f.ID, 30, nil)
	if err != nil {
		t.Fatalf("LogUsage: %v", err)
	}
	if entry.PreviousMass == nil || *entry.PreviousMass != 100 {
		t.Fatalf("previous mass = %v, want 100", entry.PreviousMass)
	}
	if entry.NewMass == nil || *entry.NewMass != 70 {
		t.Fatalf("new mass = %v, want 70", entry.NewMass)
	}

	// Using more than remains clamps at zero instead of going negative.
	entry, err = env.filament.LogUsage(ctx, f.ID, 500, nil)
	if err != nil {
		t.Fatalf("LogUsage: %v", err)
	}
	if entry.NewMass == nil || *entry.NewMass != 0 {
		t.Fatalf("clamped mass = %v, want 0", entry.NewMass)
	}

	reloaded, _ := env.filament.Get(ctx, f.ID)
	if reloaded.CurrentMass != 0 {
		t.Fatalf("current mass = %d, want 0", reloaded.CurrentMass)
	}
	if !reloaded.LastUsed.After(time.Unix(0, 0)) {
		t.Fatalf("last used not updated")
	}

	logs, err := env.filament.GetLogs(ctx, f.ID)
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("log count = %d, want 2", len(logs))
	}

	_, err = env.filament.LogUsage(ctx, f.ID, 0, nil)
	wantCode(t, err, apierr.CodeInvalidField)
}

func TestFilamentDeleteCompactsScope(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "fil-delete@example.com")
	ctx := userCtx(u)

	var ids []uuid.UUID
	for _, name := range []string{"A", "B", "C"} {
		f, err := env.filament.Create(ctx, CreateFilamentParams{
			Name: name, Brand: "Generic", Color: "#444", Material: "PLA",
			CurrentMass: 1000, StartingMass: 1000,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, f.ID)
	}
	if _, err := env.filament.LogUsage(ctx, ids[1], 10, nil); err != nil {
		t.Fatalf("LogUsage: %v", err)
	}

	if err := env.filament.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	remaining, _ := env.filament.GetByBox(ctx, nil)
	if len(remaining) != 2 {
		t.Fatalf("remaining = %d, want 2", len(remaining))
	}
	wantOrder := []uuid.UUID{ids[0], ids[2]}
	for i, f := range remaining {
		if f.ID != wantOrder[i] || f.Index != i {
			t.Fatalf("remaining[%d] = %s index %d, want %s index %d", i, f.ID, f.Index, wantOrder[i], i)
		}
	}
}

func TestFilamentDeleteFromBoxUpdatesList(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "fil-delbox@example.com")
	ctx := userCtx(u)

	box, _ := env.box.Create(ctx, "Drybox")
	f, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Boxed", Brand: "Generic", Color: "#555", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	if _, err := env.box.AddFilament(ctx, box.ID, f.ID); err != nil {
		t.Fatalf("AddFilament: %v", err)
	}

	if err := env.filament.Delete(ctx, f.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	boxAfter, _ := env.box.Get(ctx, box.ID)
	if len(boxAfter.FilamentIDs) != 0 {
		t.Fatalf("box still lists deleted filament: %v", boxAfter.FilamentIDs)
	}
}

func TestFilamentReorderWithinBox(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "fil-reorder@example.com")
	ctx := userCtx(u)

	box, _ := env.box.Create(ctx, "Drybox")
	var ids []uuid.UUID
	for _, name := range []string{"F1", "F2", "F3"} {
		f, _ := env.filament.Create(ctx, CreateFilamentParams{
			Name: name, Brand: "Generic", Color: "#666", Material: "PLA",
			CurrentMass: 1000, StartingMass: 1000,
		})
		ids = append(ids, f.ID)
	}
	if _, err := env.box.AddFilaments(ctx, box.ID, ids); err != nil {
		t.Fatalf("AddFilaments: %v", err)
	}

	got, err := env.filament.Reorder(ctx, &box.ID, []uuid.UUID{ids[2], ids[0], ids[1]})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	wantOrder := []uuid.UUID{ids[2], ids[0], ids[1]}
	for i, f := range got {
		if f.ID != wantOrder[i] || f.Index != i {
			t.Fatalf("got[%d] = %s index %d, want %s index %d", i, f.ID, f.Index, wantOrder[i], i)
		}
	}

	// Ids from a different scope are not a permutation of this one.
	loose, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Loose", Brand: "Generic", Color: "#777", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	_, err = env.filament.Reorder(ctx, &box.ID, []uuid.UUID{ids[0], ids[1], loose.ID})
	wantCode(t, err, apierr.CodeInvalidField)
}

func TestFilamentGetByShortIDOwnership(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.SeedUser(t, t.Context(), env.tx, "fil-short@example.com")
	intruder := testutil.SeedUser(t, t.Context(), env.tx, "fil-short-other@example.com")

	f, err := env.filament.Create(userCtx(owner), CreateFilamentParams{
		Name: "Scanned", Brand: "Generic", Color: "#888", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := env.filament.GetByShortID(userCtx(owner), f.ShortID)
	if err != nil {
		t.Fatalf("GetByShortID: %v", err)
	}
	if got.ID != f.ID {
		t.Fatalf("got %s, want %s", got.ID, f.ID)
	}

	_, err = env.filament.GetByShortID(userCtx(intruder), f.ShortID)
	wantCode(t, err, apierr.CodeNotAuthorized)

	_, err = env.filament.GetByShortID(userCtx(owner), "nope1234")
	wantCode(t, err, apierr.CodeNotFound)
}
