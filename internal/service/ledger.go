package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorely/internal/model"
)

type LedgerService struct {
	*deps
}

// readableChild resolves a child whose ledger the actor may read: any child
// of the family for a parent, only themselves for a child.
func (s *LedgerService) readableChild(ctx context.Context, actor Actor, childID int64) (*model.Child, error) {
	if actor.IsChild() && actor.UserID != childID {
		return nil, forbiddenf("children can only see their own balance")
	}
	return s.childInFamily(ctx, actor.FamilyID, childID)
}

// Adjust records a manual credit or debit on a child's balance.
func (s *LedgerService) Adjust(ctx context.Context, actor Actor, childID int64, amount decimal.Decimal, reason string) (*model.RewardAdjustment, error) {
	if !actor.IsParent() {
		return nil, forbiddenf("only parents can adjust balances")
	}
	child, err := s.childInFamily(ctx, actor.FamilyID, childID)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, validationf("amount must not be zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationf("a reason is required")
	}

	adj, err := s.rewards.CreateAdjustment(ctx, *child, actor.UserID, amount, reason)
	if err != nil {
		return nil, err
	}
	s.logger.Info("balance adjusted", "child_id", child.ID, "amount", amount.String())
	s.notifier.Notify(actor.FamilyID, "adjustment", "created", adj.ID)
	return adj, nil
}

func (s *LedgerService) Adjustments(ctx context.Context, actor Actor, childID int64) ([]model.RewardAdjustment, error) {
	child, err := s.readableChild(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	adjs, err := s.rewards.ListAdjustments(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	if adjs == nil {
		adjs = []model.RewardAdjustment{}
	}
	return adjs, nil
}

// Balance returns approved rewards plus adjustments minus payouts.
func (s *LedgerService) Balance(ctx context.Context, actor Actor, childID int64) (*model.Balance, error) {
	child, err := s.readableChild(ctx, actor, childID)
	if err != nil {
		return nil, err
	}
	return s.rewards.Balance(ctx, *child)
}

// Leaderboard ranks the family's children by balance.
func (s *LedgerService) Leaderboard(ctx context.Context, actor Actor) ([]model.Balance, error) {
	children, err := s.users.ListChildren(ctx, actor.FamilyID)
	if err != nil {
		return nil, err
	}
	return s.rewards.FamilyBalances(ctx, children)
}
