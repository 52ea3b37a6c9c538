package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/filatrack-backend/internal/repos/testutil"
)

func TestBoxRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewBoxRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "boxrepo@example.com")

	next, err := repo.NextIndex(ctx, tx, u.ID)
	if err != nil || next != 0 {
		t.Fatalf("NextIndex on empty: next=%d err=%v", next, err)
	}

	b0 := testutil.SeedBox(t, ctx, tx, u.ID, "B0", 0)
	b1 := testutil.SeedBox(t, ctx, tx, u.ID, "B1", 1)
	b2 := testutil.SeedBox(t, ctx, tx, u.ID, "B2", 2)

	next, err = repo.NextIndex(ctx, tx, u.ID)
	if err != nil || next != 3 {
		t.Fatalf("NextIndex: next=%d err=%v", next, err)
	}

	rows, err := repo.GetByUserID(ctx, tx, u.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("GetByUserID: err=%v len=%d", err, len(rows))
	}
	for i, want := range []uuid.UUID{b0.ID, b1.ID, b2.ID} {
		if rows[i].ID != want {
			t.Fatalf("rows[%d] = %s, want %s", i, rows[i].ID, want)
		}
	}

	if err := repo.UpdateIndexes(ctx, tx, map[uuid.UUID]int{b0.ID: 2, b2.ID: 0}); err != nil {
		t.Fatalf("UpdateIndexes: %v", err)
	}
	rows, err = repo.GetByUserID(ctx, tx, u.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("GetByUserID after reindex: err=%v len=%d", err, len(rows))
	}
	if rows[0].ID != b2.ID || rows[2].ID != b0.ID {
		t.Fatalf("order after reindex: %s %s %s", rows[0].ID, rows[1].ID, rows[2].ID)
	}

	if err := repo.DeleteByIDs(ctx, tx, []uuid.UUID{b1.ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if rows, err = repo.GetByUserID(ctx, tx, u.ID); err != nil || len(rows) != 2 {
		t.Fatalf("after delete: err=%v len=%d", err, len(rows))
	}
}
