package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorely/internal/model"
)

type RewardStore struct {
	db *sql.DB
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

// --- Adjustment methods ---

func scanAdjustment(s scanner) (*model.RewardAdjustment, error) {
	var r model.RewardAdjustment
	var createdBy sql.NullInt64

	err := s.Scan(&r.ID, &r.FamilyID, &r.ChildID, &createdBy, &r.Amount, &r.Reason, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.CreatedBy = idPtr(createdBy)
	return &r, nil
}

const adjustmentCols = `id, family_id, child_id, created_by, amount, reason, created_at`

// CreateAdjustment records a manual ledger entry for a child and logs it.
func (s *RewardStore) CreateAdjustment(ctx context.Context, child model.Child, parentID int64, amount decimal.Decimal, reason string) (*model.RewardAdjustment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO reward_adjustments (family_id, child_id, created_by, amount, reason) VALUES (?, ?, ?, ?, ?)`,
		child.FamilyID, child.ID, parentID, amount, reason,
	)
	if err != nil {
		return nil, fmt.Errorf("insert adjustment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertActivity(ctx, tx, model.Activity{
		FamilyID: child.FamilyID,
		ActorID:  &parentID,
		ChildID:  &child.ID,
		Kind:     model.ActivityAdjustment,
		Amount:   &amount,
		Detail:   reason,
	}); err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `SELECT `+adjustmentCols+` FROM reward_adjustments WHERE id = ?`, id)
	adj, err := scanAdjustment(row)
	if err != nil {
		return nil, fmt.Errorf("get adjustment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return adj, nil
}

// ListAdjustments returns a child's adjustments, newest first.
func (s *RewardStore) ListAdjustments(ctx context.Context, childID int64) ([]model.RewardAdjustment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+adjustmentCols+` FROM reward_adjustments WHERE child_id = ? ORDER BY created_at DESC, id DESC`,
		childID,
	)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []model.RewardAdjustment
	for rows.Next() {
		r, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		adjustments = append(adjustments, *r)
	}
	return adjustments, rows.Err()
}

// --- Balance methods ---

// sumAmounts adds decimal TEXT values in Go; SQLite SUM would go through
// floating point.
func (s *RewardStore) sumAmounts(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.NullDecimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		if amount.Valid {
			total = total.Add(amount.Decimal)
		}
	}
	return total, rows.Err()
}

// Balance computes earned + adjustments - payouts for one child. Earned comes
// from approval entries in the activity log, which outlive recycled pool rows
// and reset recurring rows.
func (s *RewardStore) Balance(ctx context.Context, child model.Child) (*model.Balance, error) {
	earned, err := s.sumAmounts(ctx,
		`SELECT amount FROM activities WHERE child_id = ? AND kind = ?`,
		child.ID, string(model.ActivityApproved),
	)
	if err != nil {
		return nil, fmt.Errorf("sum earned: %w", err)
	}
	adjustments, err := s.sumAmounts(ctx,
		`SELECT amount FROM reward_adjustments WHERE child_id = ?`,
		child.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sum adjustments: %w", err)
	}

	b := &model.Balance{
		ChildID:     child.ID,
		ChildName:   child.DisplayName,
		Earned:      earned,
		Adjustments: adjustments,
		Payouts:     decimal.Zero,
	}
	b.Balance = b.Earned.Add(b.Adjustments).Sub(b.Payouts)
	return b, nil
}

// FamilyBalances returns the balance of every child in the family, highest
// first, ties broken by name.
func (s *RewardStore) FamilyBalances(ctx context.Context, children []model.Child) ([]model.Balance, error) {
	balances := make([]model.Balance, 0, len(children))
	for _, c := range children {
		b, err := s.Balance(ctx, c)
		if err != nil {
			return nil, err
		}
		balances = append(balances, *b)
	}
	sort.SliceStable(balances, func(i, j int) bool {
		if cmp := balances[i].Balance.Cmp(balances[j].Balance); cmp != 0 {
			return cmp > 0
		}
		return balances[i].ChildName < balances[j].ChildName
	})
	return balances, nil
}
