package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

const (
	maxTitleLen    = 200
	maxCooldownDay = 365
)

// ChoreDraft is a validated chore definition as received from the boundary.
type ChoreDraft struct {
	Title          string
	Description    string
	Reward         model.RewardPolicy
	Recurring      bool
	CooldownDays   int
	AssignmentMode model.AssignmentMode
	AssigneeIDs    []int64
}

// ChoreUpdate carries the fields a creator may change after creation.
type ChoreUpdate struct {
	Title        string
	Description  string
	Reward       model.RewardPolicy
	Recurring    bool
	CooldownDays int
}

type ChoreService struct {
	*deps
}

func validateDefinition(title string, reward model.RewardPolicy, recurring bool, cooldownDays int) error {
	if strings.TrimSpace(title) == "" {
		return validationf("title is required")
	}
	if len(title) > maxTitleLen {
		return validationf("title must be at most %d characters", maxTitleLen)
	}
	if err := chore.ValidateReward(reward); err != nil {
		return validationf("invalid reward: %v", err)
	}
	if cooldownDays < 0 || cooldownDays > maxCooldownDay {
		return validationf("cooldown_days must be between 0 and %d", maxCooldownDay)
	}
	if !recurring && cooldownDays != 0 {
		return validationf("cooldown_days is only allowed on recurring chores")
	}
	return nil
}

// CreateChore validates the definition and assignees, then stores the chore
// with one assignment per assignee. Pool chores start with no assignments.
func (s *ChoreService) CreateChore(ctx context.Context, actor Actor, draft ChoreDraft) (*model.Chore, error) {
	if !actor.IsParent() {
		return nil, forbiddenf("only parents can create chores")
	}
	draft.Title = strings.TrimSpace(draft.Title)
	if err := validateDefinition(draft.Title, draft.Reward, draft.Recurring, draft.CooldownDays); err != nil {
		return nil, err
	}

	switch draft.AssignmentMode {
	case model.ModeUnassigned:
		if len(draft.AssigneeIDs) != 0 {
			return nil, validationf("unassigned chores cannot have assignees")
		}
	case model.ModeSingle:
		if len(draft.AssigneeIDs) != 1 {
			return nil, validationf("single chores require exactly one assignee")
		}
	case model.ModeMultiIndependent:
		if len(draft.AssigneeIDs) == 0 {
			return nil, validationf("multi_independent chores require at least one assignee")
		}
	default:
		return nil, validationf("unknown assignment mode %q", draft.AssignmentMode)
	}

	seen := make(map[int64]bool, len(draft.AssigneeIDs))
	for _, id := range draft.AssigneeIDs {
		if seen[id] {
			return nil, validationf("assignee %d listed more than once", id)
		}
		seen[id] = true

		child, err := s.users.GetChild(ctx, id)
		if err != nil {
			return nil, err
		}
		if child == nil || child.FamilyID != actor.FamilyID {
			return nil, validationf("assignee %d is not a child of this family", id)
		}
	}

	c, err := s.chores.Create(ctx, model.Chore{
		FamilyID:       actor.FamilyID,
		CreatedBy:      actor.UserID,
		Title:          draft.Title,
		Description:    draft.Description,
		Reward:         draft.Reward,
		Recurring:      draft.Recurring,
		CooldownDays:   draft.CooldownDays,
		AssignmentMode: draft.AssignmentMode,
	}, draft.AssigneeIDs)
	if errors.Is(err, store.ErrConflict) {
		return nil, validationf("duplicate assignee")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("chore created", "chore_id", c.ID, "mode", c.AssignmentMode, "assignees", len(draft.AssigneeIDs))
	s.notifier.Notify(c.FamilyID, "chore", "created", c.ID)
	return c, nil
}

// CompleteOrClaim marks the child's assignment completed, or claims a pool
// chore by inserting a completed assignment. Of concurrent claimants on one
// pool chore exactly one wins; the others get ErrConflict.
func (s *ChoreService) CompleteOrClaim(ctx context.Context, actor Actor, choreID int64) (*model.Assignment, error) {
	if !actor.IsChild() {
		return nil, forbiddenf("only children can complete chores")
	}
	c, err := s.choreInFamily(ctx, actor.FamilyID, choreID)
	if err != nil {
		return nil, err
	}
	if c.Disabled {
		return nil, notFoundf("chore %d is disabled", choreID)
	}

	now := s.now()
	a, err := s.assignments.GetByChoreAndAssignee(ctx, c.ID, actor.UserID)
	if err != nil {
		return nil, err
	}

	if a == nil {
		if c.AssignmentMode != model.ModeUnassigned {
			return nil, notFoundf("chore %d is not assigned to you", choreID)
		}
		return s.claimPool(ctx, *c, actor.UserID)
	}

	status, next := chore.ComputeStatus(*c, *a, now)
	switch status {
	case chore.StatusPendingApproval:
		s.metrics.Completion("conflict")
		return nil, conflictf("chore %d is already waiting for approval", choreID)
	case chore.StatusApproved:
		s.metrics.Completion("conflict")
		return nil, conflictf("chore %d is already approved", choreID)
	case chore.StatusCoolingDown:
		s.metrics.Completion("cooldown")
		return nil, cooldownUntil(*next)
	}

	done, err := s.assignments.MarkCompleted(ctx, *c, *a, now)
	if errors.Is(err, store.ErrStale) {
		s.metrics.Completion("conflict")
		return nil, conflictf("assignment %d changed, try again", a.ID)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Completion("ok")
	s.notifier.Notify(c.FamilyID, "assignment", "completed", done.ID)
	return done, nil
}

func (s *ChoreService) claimPool(ctx context.Context, c model.Chore, childID int64) (*model.Assignment, error) {
	now := s.now()
	if ok, next := chore.PoolOpen(c, now); !ok {
		s.metrics.Claim("cooldown")
		if next != nil {
			return nil, cooldownUntil(*next)
		}
		return nil, notFoundf("chore %d is not open for claiming", c.ID)
	}

	a, err := s.assignments.ClaimPool(ctx, c, childID, now)
	if errors.Is(err, store.ErrConflict) {
		s.metrics.Claim("conflict")
		return nil, conflictf("chore %d was already claimed", c.ID)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.Claim("won")
	s.logger.Info("pool chore claimed", "chore_id", c.ID, "child_id", childID, "assignment_id", a.ID)
	s.notifier.Notify(c.FamilyID, "assignment", "claimed", a.ID)
	return a, nil
}

// Get returns a chore of the actor's family.
func (s *ChoreService) Get(ctx context.Context, actor Actor, choreID int64) (*model.Chore, error) {
	return s.choreInFamily(ctx, actor.FamilyID, choreID)
}

// List returns every family chore for a parent; a child sees the enabled
// chores assigned to them plus pool chores.
func (s *ChoreService) List(ctx context.Context, actor Actor) ([]model.Chore, error) {
	var (
		chores []model.Chore
		err    error
	)
	if actor.IsParent() {
		chores, err = s.chores.ListByFamily(ctx, actor.FamilyID)
	} else {
		chores, err = s.chores.ListForChild(ctx, actor.FamilyID, actor.UserID)
	}
	if err != nil {
		return nil, err
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	return chores, nil
}

func (s *ChoreService) ownedChore(ctx context.Context, actor Actor, choreID int64) (*model.Chore, error) {
	c, err := s.choreInFamily(ctx, actor.FamilyID, choreID)
	if err != nil {
		return nil, err
	}
	if c.CreatedBy != actor.UserID {
		return nil, forbiddenf("only the creator can change chore %d", choreID)
	}
	return c, nil
}

// Update changes the definition of a chore. Mode and assignees are fixed.
func (s *ChoreService) Update(ctx context.Context, actor Actor, choreID int64, upd ChoreUpdate) (*model.Chore, error) {
	c, err := s.ownedChore(ctx, actor, choreID)
	if err != nil {
		return nil, err
	}
	upd.Title = strings.TrimSpace(upd.Title)
	if err := validateDefinition(upd.Title, upd.Reward, upd.Recurring, upd.CooldownDays); err != nil {
		return nil, err
	}

	c.Title = upd.Title
	c.Description = upd.Description
	c.Reward = upd.Reward
	c.Recurring = upd.Recurring
	c.CooldownDays = upd.CooldownDays

	updated, err := s.chores.Update(ctx, *c, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(updated.FamilyID, "chore", "updated", updated.ID)
	return updated, nil
}

// SetDisabled soft-disables or re-enables a chore. Its assignments drop out
// of availability while disabled but are kept.
func (s *ChoreService) SetDisabled(ctx context.Context, actor Actor, choreID int64, disabled bool) (*model.Chore, error) {
	c, err := s.ownedChore(ctx, actor, choreID)
	if err != nil {
		return nil, err
	}
	if c.Disabled == disabled {
		return c, nil
	}

	updated, err := s.chores.SetDisabled(ctx, *c, disabled, actor.UserID)
	if err != nil {
		return nil, err
	}
	action := "enabled"
	if disabled {
		action = "disabled"
	}
	s.logger.Info("chore "+action, "chore_id", c.ID)
	s.notifier.Notify(updated.FamilyID, "chore", action, updated.ID)
	return updated, nil
}

// Delete removes a chore that has never been assigned or claimed.
func (s *ChoreService) Delete(ctx context.Context, actor Actor, choreID int64) error {
	c, err := s.ownedChore(ctx, actor, choreID)
	if err != nil {
		return err
	}
	err = s.chores.Delete(ctx, *c, actor.UserID)
	if errors.Is(err, store.ErrInUse) {
		return conflictf("chore %d has assignments; disable it instead", choreID)
	}
	if err != nil {
		return err
	}
	s.notifier.Notify(c.FamilyID, "chore", "deleted", c.ID)
	return nil
}
