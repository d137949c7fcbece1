package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/model"
)

func TestClaimPoolFirstWins(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	parent, alice, bob := seedFamily(t, ts)

	c, err := ts.chores.Create(ctx, newChore(parent, model.ModeUnassigned, model.RangeReward(dec("3"), dec("10"))), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := ts.assignments.ClaimPool(ctx, *c, alice.ID, testNow)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !a.Pool || !a.IsCompleted || a.CompletedAt == nil || !a.CompletedAt.Equal(testNow) {
		t.Errorf("claimed assignment = %+v", a)
	}

	if _, err := ts.assignments.ClaimPool(ctx, *c, bob.ID, testNow); !errors.Is(err, ErrConflict) {
		t.Errorf("second claim err = %v, want ErrConflict", err)
	}
	if _, err := ts.assignments.ClaimPool(ctx, *c, alice.ID, testNow); !errors.Is(err, ErrConflict) {
		t.Errorf("repeat claim err = %v, want ErrConflict", err)
	}
}

func TestClaimPoolConcurrent(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "claims.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ts := &testStores{
		db:          db,
		families:    NewFamilyStore(db),
		users:       NewUserStore(db),
		chores:      NewChoreStore(db),
		assignments: NewAssignmentStore(db),
		activities:  NewActivityStore(db),
	}
	ctx := context.Background()
	parent, alice, bob := seedFamily(t, ts)

	c, err := ts.chores.Create(ctx, newChore(parent, model.ModeUnassigned, model.FixedReward(dec("5"))), nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, childID := range []int64{alice.ID, bob.ID} {
		i, childID := i, childID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = ts.assignments.ClaimPool(ctx, *c, childID, time.Now())
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("wins = %d, conflicts = %d; want 1 and 1", wins, conflicts)
	}

	as, err := ts.assignments.ListByChore(ctx, c.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(as) != 1 {
		t.Errorf("assignments = %d, want 1", len(as))
	}
}

func TestMarkCompletedStaleVersion(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	parent, alice, _ := seedFamily(t, ts)

	c, err := ts.chores.Create(ctx, newChore(parent, model.ModeSingle, model.FixedReward(dec("2"))), []int64{alice.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := ts.assignments.GetByChoreAndAssignee(ctx, c.ID, alice.ID)
	if err != nil || a == nil {
		t.Fatalf("get assignment: %v, %v", a, err)
	}

	done, err := ts.assignments.MarkCompleted(ctx, *c, *a, testNow)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if !done.PendingApproval() || done.Version != a.Version+1 {
		t.Errorf("completed = %+v", done)
	}

	// Writing from the old read must fail.
	if _, err := ts.assignments.MarkCompleted(ctx, *c, *a, testNow); !errors.Is(err, ErrStale) {
		t.Errorf("stale write err = %v, want ErrStale", err)
	}
}

func TestApproveAndRejectInPlace(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	parent, alice, _ := seedFamily(t, ts)

	c, err := ts.chores.Create(ctx, newChore(parent, model.ModeSingle, model.FixedReward(dec("10.00"))), []int64{alice.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a, _ := ts.assignments.GetByChoreAndAssignee(ctx, c.ID, alice.ID)
	a, err = ts.assignments.MarkCompleted(ctx, *c, *a, testNow)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	rejected, err := ts.assignments.Reject(ctx, *c, *a, parent.ID, "streaks on the glasses")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.ID != a.ID || rejected.IsCompleted || rejected.CompletedAt != nil {
		t.Errorf("rejected = %+v", rejected)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "streaks on the glasses" {
		t.Errorf("reason = %v", rejected.RejectionReason)
	}

	a, err = ts.assignments.MarkCompleted(ctx, *c, *rejected, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("complete again: %v", err)
	}
	if a.RejectionReason != nil {
		t.Error("completion should clear the rejection reason")
	}

	approved, err := ts.assignments.Approve(ctx, *c, *a, parent.ID, dec("10.00"), testNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.IsApproved || approved.ApprovalReward == nil || !approved.ApprovalReward.Equal(dec("10")) {
		t.Errorf("approved = %+v", approved)
	}
	if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(testNow.Add(2*time.Hour)) {
		t.Errorf("approved_at = %v", approved.ApprovedAt)
	}
}

func TestApproveRecurringPoolReleasesRow(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	parent, alice, bob := seedFamily(t, ts)

	def := newChore(parent, model.ModeUnassigned, model.FixedReward(dec("4")))
	def.Recurring = true
	def.CooldownDays = 2
	c, err := ts.chores.Create(ctx, def, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	a, err := ts.assignments.ClaimPool(ctx, *c, alice.ID, testNow)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	approved, err := ts.assignments.Approve(ctx, *c, *a, parent.ID, dec("4"), testNow)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.IsApproved {
		t.Error("returned assignment should read as approved")
	}

	gone, err := ts.assignments.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gone != nil {
		t.Error("pool row should be released on approval")
	}

	c, err = ts.chores.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("get chore: %v", err)
	}
	if c.LastApprovedAt == nil || !c.LastApprovedAt.Equal(testNow) {
		t.Errorf("last_approved_at = %v, want %v", c.LastApprovedAt, testNow)
	}

	// Another child may claim the released chore.
	if _, err := ts.assignments.ClaimPool(ctx, *c, bob.ID, testNow.Add(72*time.Hour)); err != nil {
		t.Errorf("claim after release: %v", err)
	}

	b, err := ts.rewards.Balance(ctx, alice)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !b.Earned.Equal(dec("4")) {
		t.Errorf("earned = %s, want 4", b.Earned)
	}
}

func TestListPendingAndForAssignee(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	parent, alice, bob := seedFamily(t, ts)

	c, err := ts.chores.Create(ctx, newChore(parent, model.ModeMultiIndependent, model.FixedReward(dec("1"))), []int64{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	a, _ := ts.assignments.GetByChoreAndAssignee(ctx, c.ID, bob.ID)
	if _, err := ts.assignments.MarkCompleted(ctx, *c, *a, testNow); err != nil {
		t.Fatalf("complete: %v", err)
	}

	pending, err := ts.assignments.ListPendingForCreator(ctx, parent.ID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].AssigneeName != "Bob" || pending[0].Chore.ID != c.ID || !pending[0].Chore.Reward.Amount.Equal(dec("1")) {
		t.Errorf("pending view = %+v", pending[0])
	}

	mine, err := ts.assignments.ListForAssignee(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list for assignee: %v", err)
	}
	if len(mine) != 1 || mine[0].AssigneeID != alice.ID || mine[0].IsCompleted {
		t.Errorf("alice assignments = %+v", mine)
	}
}
