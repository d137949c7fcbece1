package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorely/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(s scanner) (*model.Chore, error) {
	var c model.Chore
	var kind, mode string
	var amount, min, max decimal.NullDecimal
	var lastApproved sql.NullTime

	err := s.Scan(
		&c.ID, &c.FamilyID, &c.CreatedBy, &c.Title, &c.Description,
		&kind, &amount, &min, &max,
		&c.Recurring, &c.CooldownDays, &mode, &c.Disabled, &lastApproved,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Reward = model.RewardPolicy{
		Kind:   model.RewardKind(kind),
		Amount: decPtr(amount),
		Min:    decPtr(min),
		Max:    decPtr(max),
	}
	c.AssignmentMode = model.AssignmentMode(mode)
	c.LastApprovedAt = timePtr(lastApproved)
	return &c, nil
}

const choreCols = `id, family_id, created_by, title, description, reward_kind, reward_amount, reward_min, reward_max, recurring, cooldown_days, assignment_mode, disabled, last_approved_at, created_at, updated_at`

// Create inserts the chore and one assignment row per assignee in a single
// transaction.
func (s *ChoreStore) Create(ctx context.Context, c model.Chore, assigneeIDs []int64) (*model.Chore, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO chores (family_id, created_by, title, description, reward_kind, reward_amount, reward_min, reward_max, recurring, cooldown_days, assignment_mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.FamilyID, c.CreatedBy, c.Title, c.Description,
		string(c.Reward.Kind), nullDec(c.Reward.Amount), nullDec(c.Reward.Min), nullDec(c.Reward.Max),
		c.Recurring, c.CooldownDays, string(c.AssignmentMode),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, assignee := range assigneeIDs {
		_, err := tx.ExecContext(ctx, `INSERT INTO assignments (chore_id, assignee_id) VALUES (?, ?)`, id, assignee)
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("assignee %d listed twice: %w", assignee, ErrConflict)
		}
		if err != nil {
			return nil, fmt.Errorf("insert assignment: %w", err)
		}
	}

	if err := insertActivity(ctx, tx, model.Activity{
		FamilyID: c.FamilyID,
		ActorID:  &c.CreatedBy,
		ChoreID:  &id,
		Kind:     model.ActivityChoreCreated,
		Detail:   c.Title,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *ChoreStore) GetByID(ctx context.Context, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) queryChores(ctx context.Context, query string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// ListByFamily returns every chore of the family, enabled first, then by title.
func (s *ChoreStore) ListByFamily(ctx context.Context, familyID int64) ([]model.Chore, error) {
	return s.queryChores(ctx,
		`SELECT `+choreCols+` FROM chores WHERE family_id = ? ORDER BY disabled ASC, title ASC, id ASC`,
		familyID,
	)
}

// ListForChild returns the enabled chores the child holds an assignment for
// plus every enabled pool chore of the family.
func (s *ChoreStore) ListForChild(ctx context.Context, familyID, childID int64) ([]model.Chore, error) {
	return s.queryChores(ctx,
		`SELECT `+choreCols+` FROM chores
		 WHERE family_id = ? AND disabled = 0
		   AND (assignment_mode = ? OR id IN (SELECT chore_id FROM assignments WHERE assignee_id = ?))
		 ORDER BY title ASC, id ASC`,
		familyID, string(model.ModeUnassigned), childID,
	)
}

// ListOpenPool returns enabled pool chores of the family that no child
// currently holds. Cooldown is left to the caller.
func (s *ChoreStore) ListOpenPool(ctx context.Context, familyID int64) ([]model.Chore, error) {
	return s.queryChores(ctx,
		`SELECT `+choreCols+` FROM chores
		 WHERE family_id = ? AND disabled = 0 AND assignment_mode = ?
		   AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.chore_id = chores.id)
		 ORDER BY title ASC, id ASC`,
		familyID, string(model.ModeUnassigned),
	)
}

// Update rewrites the editable definition fields. Mode and assignees are
// fixed at creation.
func (s *ChoreStore) Update(ctx context.Context, c model.Chore, actorID int64) (*model.Chore, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE chores SET title = ?, description = ?, reward_kind = ?, reward_amount = ?, reward_min = ?, reward_max = ?, recurring = ?, cooldown_days = ? WHERE id = ?`,
		c.Title, c.Description,
		string(c.Reward.Kind), nullDec(c.Reward.Amount), nullDec(c.Reward.Min), nullDec(c.Reward.Max),
		c.Recurring, c.CooldownDays, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	if err := insertActivity(ctx, tx, model.Activity{
		FamilyID: c.FamilyID,
		ActorID:  &actorID,
		ChoreID:  &c.ID,
		Kind:     model.ActivityChoreUpdated,
		Detail:   c.Title,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, c.ID)
}

// SetDisabled soft-disables or re-enables a chore. Assignments are kept.
func (s *ChoreStore) SetDisabled(ctx context.Context, c model.Chore, disabled bool, actorID int64) (*model.Chore, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE chores SET disabled = ? WHERE id = ?`, disabled, c.ID); err != nil {
		return nil, fmt.Errorf("set chore disabled: %w", err)
	}

	kind := model.ActivityChoreEnabled
	if disabled {
		kind = model.ActivityChoreDisabled
	}
	if err := insertActivity(ctx, tx, model.Activity{
		FamilyID: c.FamilyID,
		ActorID:  &actorID,
		ChoreID:  &c.ID,
		Kind:     kind,
		Detail:   c.Title,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(ctx, c.ID)
}

// Delete hard-deletes a chore that no assignment references; otherwise it
// returns ErrInUse and the chore should be disabled instead.
func (s *ChoreStore) Delete(ctx context.Context, c model.Chore, actorID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM assignments WHERE chore_id = ?`, c.ID).Scan(&n); err != nil {
		return fmt.Errorf("count assignments: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("chore %d has %d assignments: %w", c.ID, n, ErrInUse)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, c.ID); err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	if err := insertActivity(ctx, tx, model.Activity{
		FamilyID: c.FamilyID,
		ActorID:  &actorID,
		ChoreID:  &c.ID,
		Kind:     model.ActivityChoreDeleted,
		Detail:   c.Title,
	}); err != nil {
		return err
	}
	return tx.Commit()
}

// markPoolApproved stamps the time a pool chore was last approved so the pool
// can enforce the recurrence cooldown after its row is recycled.
func markPoolApproved(ctx context.Context, ex execer, choreID int64, at time.Time) error {
	if _, err := ex.ExecContext(ctx, `UPDATE chores SET last_approved_at = ? WHERE id = ?`, at.UTC(), choreID); err != nil {
		return fmt.Errorf("mark pool approved: %w", err)
	}
	return nil
}
