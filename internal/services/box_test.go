package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/repos/testutil"
)

func wantCode(t *testing.T, err error, code apierr.Code) {
	t.Helper()
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected apierr with code %v, got %v", code, err)
	}
	if ae.Code != code {
		t.Fatalf("expected code %v, got %v (info=%q)", code, ae.Code, ae.Info)
	}
}

func TestBoxCreateAssignsSequentialIndexes(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-create@example.com")
	ctx := userCtx(u)

	for i, name := range []string{"Shelf A", "Shelf B", "Shelf C"} {
		box, err := env.box.Create(ctx, name)
		if err != nil {
			t.Fatalf("Create %q: %v", name, err)
		}
		if box.Index != i {
			t.Fatalf("box %q index = %d, want %d", name, box.Index, i)
		}
	}
}

func TestBoxCreateValidatesName(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-name@example.com")
	ctx := userCtx(u)

	_, err := env.box.Create(ctx, "")
	wantCode(t, err, apierr.CodeInvalidField)

	_, err = env.box.Create(ctx, strings.Repeat("x", 49))
	wantCode(t, err, apierr.CodeInvalidField)

	if _, err := env.box.Create(ctx, strings.Repeat("x", 48)); err != nil {
		t.Fatalf("48 char name should be accepted: %v", err)
	}
}

func TestBoxOwnershipEnforced(t *testing.T) {
	env := newTestEnv(t)
	owner := testutil.SeedUser(t, t.Context(), env.tx, "box-owner@example.com")
	intruder := testutil.SeedUser(t, t.Context(), env.tx, "box-intruder@example.com")

	box, err := env.box.Create(userCtx(owner), "Private")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = env.box.Get(userCtx(intruder), box.ID)
	wantCode(t, err, apierr.CodeNotAuthorized)

	_, err = env.box.Get(userCtx(owner), uuid.New())
	wantCode(t, err, apierr.CodeNotFound)
}

func TestBoxAddRemoveFilamentRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-roundtrip@example.com")
	ctx := userCtx(u)

	box, err := env.box.Create(ctx, "Drybox")
	if err != nil {
		t.Fatalf("Create box: %v", err)
	}
	f, err := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Blue PLA", Brand: "Generic", Color: "#0000ff", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	if err != nil {
		t.Fatalf("Create filament: %v", err)
	}

	res, err := env.box.AddFilament(ctx, box.ID, f.ID)
	if err != nil {
		t.Fatalf("AddFilament: %v", err)
	}
	if len(res.Box.FilamentIDs) != 1 || res.Box.FilamentIDs[0] != f.ID {
		t.Fatalf("box filament_ids = %v, want [%s]", res.Box.FilamentIDs, f.ID)
	}
	if res.Filament[0].BoxID == nil || *res.Filament[0].BoxID != box.ID {
		t.Fatalf("filament box_id = %v, want %s", res.Filament[0].BoxID, box.ID)
	}
	if res.Filament[0].Index != 0 {
		t.Fatalf("filament index in box = %d, want 0", res.Filament[0].Index)
	}

	res, err = env.box.RemoveFilament(ctx, box.ID, f.ID)
	if err != nil {
		t.Fatalf("RemoveFilament: %v", err)
	}
	if len(res.Box.FilamentIDs) != 0 {
		t.Fatalf("box filament_ids after remove = %v, want empty", res.Box.FilamentIDs)
	}
	if res.Filament[0].BoxID != nil {
		t.Fatalf("filament box_id after remove = %v, want nil", res.Filament[0].BoxID)
	}

	// Round trip leaves the unboxed scope exactly as it started.
	unboxed, err := env.filament.GetByBox(ctx, nil)
	if err != nil {
		t.Fatalf("GetByBox: %v", err)
	}
	if len(unboxed) != 1 || unboxed[0].ID != f.ID || unboxed[0].Index != 0 {
		t.Fatalf("unboxed scope = %+v, want [%s index 0]", unboxed, f.ID)
	}
}

func TestBoxAddFilamentAlreadyInBox(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-dup@example.com")
	ctx := userCtx(u)

	box, _ := env.box.Create(ctx, "Drybox")
	f, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "PETG", Brand: "Generic", Color: "#fff", Material: "PETG",
		CurrentMass: 500, StartingMass: 500,
	})
	if _, err := env.box.AddFilament(ctx, box.ID, f.ID); err != nil {
		t.Fatalf("AddFilament: %v", err)
	}
	_, err := env.box.AddFilament(ctx, box.ID, f.ID)
	wantCode(t, err, apierr.CodeInvalidField)
}

func TestBoxRemoveFilamentNotInBox(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-notin@example.com")
	ctx := userCtx(u)

	box, _ := env.box.Create(ctx, "Drybox")
	f, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "ABS", Brand: "Generic", Color: "#111", Material: "ABS",
		CurrentMass: 800, StartingMass: 800,
	})
	_, err := env.box.RemoveFilament(ctx, box.ID, f.ID)
	wantCode(t, err, apierr.CodeInvalidField)
}

func TestBoxAddFilamentsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-batch@example.com")
	other := testutil.SeedUser(t, t.Context(), env.tx, "box-batch-other@example.com")
	ctx := userCtx(u)

	box, _ := env.box.Create(ctx, "Drybox")
	mine, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Mine", Brand: "Generic", Color: "#222", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	theirs := testutil.SeedFilament(t, t.Context(), env.tx, other.ID, nil, "Theirs", 0)

	_, err := env.box.AddFilaments(ctx, box.ID, []uuid.UUID{mine.ID, theirs.ID})
	wantCode(t, err, apierr.CodeNotAuthorized)

	// The valid half of the batch must not have been applied.
	reloaded, err := env.filament.Get(ctx, mine.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reloaded.BoxID != nil {
		t.Fatalf("filament was attached by a failed batch")
	}
	boxAfter, _ := env.box.Get(ctx, box.ID)
	if len(boxAfter.FilamentIDs) != 0 {
		t.Fatalf("box filament_ids mutated by a failed batch: %v", boxAfter.FilamentIDs)
	}
}

func TestBoxMoveBetweenBoxes(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-move@example.com")
	ctx := userCtx(u)

	boxA, _ := env.box.Create(ctx, "A")
	boxB, _ := env.box.Create(ctx, "B")
	f1, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "One", Brand: "Generic", Color: "#111", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	f2, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Two", Brand: "Generic", Color: "#222", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	if _, err := env.box.AddFilaments(ctx, boxA.ID, []uuid.UUID{f1.ID, f2.ID}); err != nil {
		t.Fatalf("AddFilaments: %v", err)
	}

	// Moving f1 into B must also remove it from A's stored list and close
	// the index gap it leaves behind in A.
	if _, err := env.box.AddFilament(ctx, boxB.ID, f1.ID); err != nil {
		t.Fatalf("move: %v", err)
	}

	aAfter, _ := env.box.Get(ctx, boxA.ID)
	if len(aAfter.FilamentIDs) != 1 || aAfter.FilamentIDs[0] != f2.ID {
		t.Fatalf("source box list = %v, want [%s]", aAfter.FilamentIDs, f2.ID)
	}
	aScope, _ := env.filament.GetByBox(ctx, &boxA.ID)
	if len(aScope) != 1 || aScope[0].Index != 0 {
		t.Fatalf("source scope not compacted: %+v", aScope)
	}
	bScope, _ := env.filament.GetByBox(ctx, &boxB.ID)
	if len(bScope) != 1 || bScope[0].ID != f1.ID || bScope[0].Index != 0 {
		t.Fatalf("target scope = %+v, want [%s index 0]", bScope, f1.ID)
	}
}

func TestBoxDeleteDetachesMembers(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-delete@example.com")
	ctx := userCtx(u)

	boxA, _ := env.box.Create(ctx, "Doomed")
	boxB, _ := env.box.Create(ctx, "Survivor")
	loose, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Loose", Brand: "Generic", Color: "#aaa", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	m1, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Member1", Brand: "Generic", Color: "#bbb", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	m2, _ := env.filament.Create(ctx, CreateFilamentParams{
		Name: "Member2", Brand: "Generic", Color: "#ccc", Material: "PLA",
		CurrentMass: 1000, StartingMass: 1000,
	})
	if _, err := env.box.AddFilaments(ctx, boxA.ID, []uuid.UUID{m1.ID, m2.ID}); err != nil {
		t.Fatalf("AddFilaments: %v", err)
	}

	if err := env.box.Delete(ctx, boxA.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := env.box.Get(ctx, boxA.ID)
	wantCode(t, err, apierr.CodeNotFound)

	// Members land at the end of the unboxed list in their old order.
	unboxed, _ := env.filament.GetByBox(ctx, nil)
	wantOrder := []uuid.UUID{loose.ID, m1.ID, m2.ID}
	if len(unboxed) != 3 {
		t.Fatalf("unboxed scope has %d members, want 3", len(unboxed))
	}
	for i, f := range unboxed {
		if f.ID != wantOrder[i] || f.Index != i {
			t.Fatalf("unboxed[%d] = %s index %d, want %s index %d", i, f.ID, f.Index, wantOrder[i], i)
		}
	}

	// The surviving box drops to index 0.
	boxes, _ := env.box.GetAll(ctx)
	if len(boxes) != 1 || boxes[0].ID != boxB.ID || boxes[0].Index != 0 {
		t.Fatalf("boxes after delete = %+v, want [%s index 0]", boxes, boxB.ID)
	}
}

func TestBoxReorder(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.SeedUser(t, t.Context(), env.tx, "box-reorder@example.com")
	ctx := userCtx(u)

	b1, _ := env.box.Create(ctx, "B1")
	b2, _ := env.box.Create(ctx, "B2")
	b3, _ := env.box.Create(ctx, "B3")

	boxes, err := env.box.Reorder(ctx, []uuid.UUID{b3.ID, b1.ID, b2.ID})
	if err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	wantOrder := []uuid.UUID{b3.ID, b1.ID, b2.ID}
	for i, b := range boxes {
		if b.ID != wantOrder[i] || b.Index != i {
			t.Fatalf("boxes[%d] = %s index %d, want %s index %d", i, b.ID, b.Index, wantOrder[i], i)
		}
	}

	// A stale or partial list is rejected without changing anything.
	_, err = env.box.Reorder(ctx, []uuid.UUID{b1.ID, b2.ID})
	wantCode(t, err, apierr.CodeInvalidField)

	_, err = env.box.Reorder(ctx, []uuid.UUID{b1.ID, b2.ID, uuid.New()})
	wantCode(t, err, apierr.CodeInvalidField)

	_, err = env.box.Reorder(ctx, []uuid.UUID{b1.ID, b1.ID, b2.ID})
	wantCode(t, err, apierr.CodeInvalidField)

	after, _ := env.box.GetAll(ctx)
	for i, b := range after {
		if b.ID != wantOrder[i] {
			t.Fatalf("order mutated by rejected reorder")
		}
	}
}

func TestBoxRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.box.GetAll(t.Context())
	wantCode(t, err, apierr.CodeNotAuthenticated)
	_, err = env.box.Create(t.Context(), "X")
	wantCode(t, err, apierr.CodeNotAuthenticated)
}
