package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/filatrack-backend/internal/repos/testutil"
)

func TestFilamentRepoScopes(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewFilamentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "filrepo@example.com")
	box := testutil.SeedBox(t, ctx, tx, u.ID, "Box", 0)

	boxed0 := testutil.SeedFilament(t, ctx, tx, u.ID, &box.ID, "Boxed0", 0)
	boxed1 := testutil.SeedFilament(t, ctx, tx, u.ID, &box.ID, "Boxed1", 1)
	loose := testutil.SeedFilament(t, ctx, tx, u.ID, nil, "Loose", 0)

	inBox, err := repo.GetScope(ctx, tx, u.ID, &box.ID)
	if err != nil || len(inBox) != 2 {
		t.Fatalf("GetScope(box): err=%v len=%d", err, len(inBox))
	}
	if inBox[0].ID != boxed0.ID || inBox[1].ID != boxed1.ID {
		t.Fatalf("box scope order: %s %s", inBox[0].ID, inBox[1].ID)
	}

	unboxed, err := repo.GetScope(ctx, tx, u.ID, nil)
	if err != nil || len(unboxed) != 1 || unboxed[0].ID != loose.ID {
		t.Fatalf("GetScope(nil): err=%v rows=%+v", err, unboxed)
	}

	if got, err := repo.GetByShortID(ctx, tx, loose.ShortID); err != nil || got == nil || got.ID != loose.ID {
		t.Fatalf("GetByShortID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByShortID(ctx, tx, "missing1"); err != nil || got != nil {
		t.Fatalf("GetByShortID(missing): got=%v err=%v", got, err)
	}

	// Detach both boxed spools and confirm the scope queries follow box_id.
	if err := repo.SetBoxID(ctx, tx, []uuid.UUID{boxed0.ID, boxed1.ID}, nil); err != nil {
		t.Fatalf("SetBoxID: %v", err)
	}
	if rows, err := repo.GetScope(ctx, tx, u.ID, &box.ID); err != nil || len(rows) != 0 {
		t.Fatalf("box scope after detach: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetScope(ctx, tx, u.ID, nil); err != nil || len(rows) != 3 {
		t.Fatalf("unboxed scope after detach: err=%v len=%d", err, len(rows))
	}
}
