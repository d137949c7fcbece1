package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorely/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func scanActivity(s scanner) (*model.Activity, error) {
	var a model.Activity
	var actor, child, chore, assignment sql.NullInt64
	var amount decimal.NullDecimal
	var kind string

	err := s.Scan(&a.ID, &a.FamilyID, &actor, &child, &chore, &assignment, &kind, &amount, &a.Detail, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.ActorID = idPtr(actor)
	a.ChildID = idPtr(child)
	a.ChoreID = idPtr(chore)
	a.AssignmentID = idPtr(assignment)
	a.Kind = model.ActivityKind(kind)
	a.Amount = decPtr(amount)
	return &a, nil
}

const activityCols = `id, family_id, actor_id, child_id, chore_id, assignment_id, kind, amount, detail, created_at`

// ListByFamily returns the most recent activity of a family, newest first.
func (s *ActivityStore) ListByFamily(ctx context.Context, familyID int64, limit int) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+activityCols+` FROM activities WHERE family_id = ? ORDER BY id DESC LIMIT ?`,
		familyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Latest returns the newest activity of a family, or nil when there is none.
func (s *ActivityStore) Latest(ctx context.Context, familyID int64) (*model.Activity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+activityCols+` FROM activities WHERE family_id = ? ORDER BY id DESC LIMIT 1`, familyID)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest activity: %w", err)
	}
	return a, nil
}
