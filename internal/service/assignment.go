package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

type AssignmentService struct {
	*deps
	rejectReasonMin int
}

// Available partitions what a child can work on right now.
type Available struct {
	Assigned []model.AssignmentView `json:"assigned"`
	Pool     []model.Chore          `json:"pool"`
}

// decidable loads a pending assignment and its chore for the approving parent.
func (s *AssignmentService) decidable(ctx context.Context, actor Actor, assignmentID int64) (*model.Assignment, *model.Chore, error) {
	if !actor.IsParent() {
		return nil, nil, forbiddenf("only parents can review chores")
	}
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, notFoundf("assignment %d not found", assignmentID)
	}
	c, err := s.chores.GetByID(ctx, a.ChoreID)
	if err != nil {
		return nil, nil, err
	}
	if c == nil || c.FamilyID != actor.FamilyID {
		return nil, nil, notFoundf("assignment %d not found", assignmentID)
	}
	if c.CreatedBy != actor.UserID {
		return nil, nil, forbiddenf("only the creator of chore %d can review it", c.ID)
	}
	return a, c, nil
}

// Approve grants the reward for a pending assignment. value may be nil for a
// fixed reward and must lie within [min, max] for a range reward.
func (s *AssignmentService) Approve(ctx context.Context, actor Actor, assignmentID int64, value *decimal.Decimal) (*model.Assignment, error) {
	a, c, err := s.decidable(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}

	reward, err := chore.ResolveReward(c.Reward, value)
	if err != nil {
		return nil, validationf("%v", err)
	}
	if !a.PendingApproval() {
		return nil, conflictf("assignment %d is not waiting for approval", a.ID)
	}

	approved, err := s.assignments.Approve(ctx, *c, *a, actor.UserID, reward, s.now())
	if errors.Is(err, store.ErrStale) {
		return nil, conflictf("assignment %d changed, try again", a.ID)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Decision("approved")
	s.logger.Info("assignment approved", "assignment_id", a.ID, "chore_id", c.ID, "reward", reward.String())
	s.notifier.Notify(c.FamilyID, "assignment", "approved", a.ID)
	return approved, nil
}

// Reject sends a pending assignment back to the child with a reason. The
// assignment is immediately available again.
func (s *AssignmentService) Reject(ctx context.Context, actor Actor, assignmentID int64, reason string) (*model.Assignment, error) {
	a, c, err := s.decidable(ctx, actor, assignmentID)
	if err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("a reason is required to reject")
	}
	if len([]rune(reason)) < s.rejectReasonMin {
		return nil, validationf("reason must be at least %d characters", s.rejectReasonMin)
	}
	if !a.PendingApproval() {
		return nil, conflictf("assignment %d is not waiting for approval", a.ID)
	}

	rejected, err := s.assignments.Reject(ctx, *c, *a, actor.UserID, reason)
	if errors.Is(err, store.ErrStale) {
		return nil, conflictf("assignment %d changed, try again", a.ID)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Decision("rejected")
	s.notifier.Notify(c.FamilyID, "assignment", "rejected", a.ID)
	return rejected, nil
}

// ListPendingApproval returns completed, unapproved assignments on chores the
// parent created, including chores disabled after completion.
func (s *AssignmentService) ListPendingApproval(ctx context.Context, actor Actor) ([]model.AssignmentView, error) {
	if !actor.IsParent() {
		return nil, forbiddenf("only parents review chores")
	}
	views, err := s.assignments.ListPendingForCreator(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []model.AssignmentView{}
	}
	return views, nil
}

// ListAvailableForChild returns the child's assignments that can be completed
// now and the pool chores open for claiming. Disabled chores never appear.
func (s *AssignmentService) ListAvailableForChild(ctx context.Context, actor Actor, childID int64) (*Available, error) {
	if actor.IsChild() && actor.UserID != childID {
		return nil, forbiddenf("children can only list their own chores")
	}
	child, err := s.childInFamily(ctx, actor.FamilyID, childID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &Available{Assigned: []model.AssignmentView{}, Pool: []model.Chore{}}

	views, err := s.assignments.ListForAssignee(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		if chore.Available(v.Chore, v.Assignment, now) {
			out.Assigned = append(out.Assigned, v)
		}
	}

	pool, err := s.chores.ListOpenPool(ctx, child.FamilyID)
	if err != nil {
		return nil, err
	}
	for _, c := range pool {
		if ok, _ := chore.PoolOpen(c, now); ok {
			out.Pool = append(out.Pool, c)
		}
	}
	return out, nil
}
