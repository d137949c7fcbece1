package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorely/internal/model"
)

func completedRangeChore(t *testing.T, f *fixture) (*model.Chore, *model.Assignment) {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.Chores.CreateChore(ctx, f.parent, ChoreDraft{
		Title: "Weed garden", Reward: model.RangeReward(d("3"), d("10")),
		AssignmentMode: model.ModeSingle, AssigneeIDs: []int64{f.alice.UserID},
	})
	require.NoError(t, err)
	a, err := f.svc.Chores.CompleteOrClaim(ctx, f.alice, c.ID)
	require.NoError(t, err)
	return c, a
}

func TestApproveRangeBounds(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		value string
		ok    bool
	}{
		{"2.99", false},
		{"3", true},
		{"6.50", true},
		{"10", true},
		{"10.01", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			f := newFixture(t)
			_, a := completedRangeChore(t, f)

			got, err := f.svc.Assignments.Approve(ctx, f.parent, a.ID, dp(tt.value))
			if !tt.ok {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.ApprovalReward.Equal(d(tt.value)))
			assert.True(t, got.IsApproved)
		})
	}
}

func TestApproveRangeRequiresValue(t *testing.T) {
	f := newFixture(t)
	_, a := completedRangeChore(t, f)

	_, err := f.svc.Assignments.Approve(context.Background(), f.parent, a.ID, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApproveFixedMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c, err := f.svc.Chores.CreateChore(ctx, f.parent, ChoreDraft{
		Title: "Dishes", Reward: model.FixedReward(d("4.00")),
		AssignmentMode: model.ModeSingle, AssigneeIDs: []int64{f.alice.UserID},
	})
	require.NoError(t, err)
	a, err := f.svc.Chores.CompleteOrClaim(ctx, f.alice, c.ID)
	require.NoError(t, err)

	_, err = f.svc.Assignments.Approve(ctx, f.parent, a.ID, dp("5"))
	assert.ErrorIs(t, err, ErrValidation)

	got, err := f.svc.Assignments.Approve(ctx, f.parent, a.ID, dp("4"))
	require.NoError(t, err)
	assert.True(t, got.ApprovalReward.Equal(d("4")))
}

func TestApproveAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := completedRangeChore(t, f)

	// A second parent in the same family did not create the chore.
	p2, err := f.svc.Families.Register(ctx, Registration{FamilyName: "Other", Username: "dad", Password: "password1"})
	require.NoError(t, err)
	sameFamily := Actor{UserID: p2.ID, FamilyID: f.parent.FamilyID, Role: model.RoleParent}
	_, err = f.svc.Assignments.Approve(ctx, sameFamily, a.ID, dp("5"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Assignments.Approve(ctx, f.alice, a.ID, dp("5"))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Assignments.Approve(ctx, f.parent, 9999, dp("5"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApproveRequiresPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := completedRangeChore(t, f)

	_, err := f.svc.Assignments.Approve(ctx, f.parent, a.ID, dp("5"))
	require.NoError(t, err)
	_, err = f.svc.Assignments.Approve(ctx, f.parent, a.ID, dp("5"))
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.svc.Assignments.Reject(ctx, f.parent, a.ID, "changed my mind")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRejectReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, a := completedRangeChore(t, f)

	_, err := f.svc.Assignments.Reject(ctx, f.parent, a.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.Assignments.Reject(ctx, f.parent, a.ID, " no ")
	assert.ErrorIs(t, err, ErrValidation)

	got, err := f.svc.Assignments.Reject(ctx, f.parent, a.ID, "  weeds still there ")
	require.NoError(t, err)
	require.NotNil(t, got.RejectionReason)
	assert.Equal(t, "weeds still there", *got.RejectionReason)
	assert.False(t, got.IsCompleted)

	pending, err := f.svc.Assignments.ListPendingApproval(ctx, f.parent)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestListAvailableForChildAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Assignments.ListAvailableForChild(ctx, f.alice, f.bob.UserID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Assignments.ListAvailableForChild(ctx, f.parent, f.bob.UserID)
	require.NoError(t, err)
	assert.NotNil(t, got.Assigned)
	assert.NotNil(t, got.Pool)

	_, err = f.svc.Assignments.ListAvailableForChild(ctx, f.parent, f.parent.UserID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPendingApprovalIsPerCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	completedRangeChore(t, f)

	_, err := f.svc.Assignments.ListPendingApproval(ctx, f.alice)
	assert.ErrorIs(t, err, ErrForbidden)

	p2, err := f.svc.Families.Register(ctx, Registration{FamilyName: "Other", Username: "dad", Password: "password1"})
	require.NoError(t, err)
	views, err := f.svc.Assignments.ListPendingApproval(ctx, Actor{UserID: p2.ID, FamilyID: p2.FamilyID, Role: model.RoleParent})
	require.NoError(t, err)
	assert.Empty(t, views)

	views, err = f.svc.Assignments.ListPendingApproval(ctx, f.parent)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Alice", views[0].AssigneeName)
	assert.Equal(t, "Weed garden", views[0].Chore.Title)
}
