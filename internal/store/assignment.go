package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorely/internal/model"
)

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

func scanAssignment(s scanner) (*model.Assignment, error) {
	var a model.Assignment
	var completedAt, approvedAt sql.NullTime
	var reward decimal.NullDecimal
	var reason sql.NullString

	err := s.Scan(
		&a.ID, &a.ChoreID, &a.AssigneeID, &a.Pool, &a.IsCompleted, &a.IsApproved,
		&completedAt, &approvedAt, &reward, &reason, &a.Version,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.CompletedAt = timePtr(completedAt)
	a.ApprovedAt = timePtr(approvedAt)
	a.ApprovalReward = decPtr(reward)
	if reason.Valid {
		a.RejectionReason = &reason.String
	}
	return &a, nil
}

const assignmentCols = `id, chore_id, assignee_id, pool, is_completed, is_approved, completed_at, approved_at, approval_reward, rejection_reason, version, created_at, updated_at`

func (s *AssignmentStore) GetByID(ctx context.Context, id int64) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *AssignmentStore) GetByChoreAndAssignee(ctx context.Context, choreID, assigneeID int64) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentCols+` FROM assignments WHERE chore_id = ? AND assignee_id = ?`,
		choreID, assigneeID,
	)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment by chore: %w", err)
	}
	return a, nil
}

func (s *AssignmentStore) ListByChore(ctx context.Context, choreID int64) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assignmentCols+` FROM assignments WHERE chore_id = ? ORDER BY id ASC`, choreID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ClaimPool inserts a completed pool row for the child. The partial unique
// index on pool rows makes the insert fail for every claimant but the first;
// that failure is reported as ErrConflict.
func (s *AssignmentStore) ClaimPool(ctx context.Context, c model.Chore, childID int64, now time.Time) (*model.Assignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO assignments (chore_id, assignee_id, pool, is_completed, completed_at) VALUES (?, ?, 1, 1, ?)`,
		c.ID, childID, now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("chore %d already claimed: %w", c.ID, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert pool assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := insertActivity(ctx, tx, model.Activity{
		FamilyID:     c.FamilyID,
		ActorID:      &childID,
		ChildID:      &childID,
		ChoreID:      &c.ID,
		AssignmentID: &id,
		Kind:         model.ActivityClaimed,
		Detail:       c.Title,
	}); err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// updateVersioned applies an optimistic update: the row must still carry the
// version it was read at. The activity entry commits with the update.
func (s *AssignmentStore) updateVersioned(ctx context.Context, a model.Assignment, act model.Activity, query string, args ...any) (*model.Assignment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	args = append(args, a.ID, a.Version)
	result, err := tx.ExecContext(ctx, query+` WHERE id = ? AND version = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("assignment %d at version %d: %w", a.ID, a.Version, ErrStale)
	}

	if err := insertActivity(ctx, tx, act); err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, a.ID)
	updated, err := scanAssignment(row)
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// MarkCompleted records completion. Approval fields left from a previous
// recurrence are cleared so the row reads as pending approval again.
func (s *AssignmentStore) MarkCompleted(ctx context.Context, c model.Chore, a model.Assignment, now time.Time) (*model.Assignment, error) {
	return s.updateVersioned(ctx, a,
		model.Activity{
			FamilyID:     c.FamilyID,
			ActorID:      &a.AssigneeID,
			ChildID:      &a.AssigneeID,
			ChoreID:      &c.ID,
			AssignmentID: &a.ID,
			Kind:         model.ActivityCompleted,
			Detail:       c.Title,
		},
		`UPDATE assignments SET is_completed = 1, completed_at = ?, is_approved = 0, approved_at = NULL, approval_reward = NULL, rejection_reason = NULL, version = version + 1`,
		now.UTC(),
	)
}

// Approve grants reward for a pending assignment. A recurring pool chore
// releases its row back to the pool and records the approval time on the
// chore instead; in that case the returned assignment is the final state of
// the deleted row.
func (s *AssignmentStore) Approve(ctx context.Context, c model.Chore, a model.Assignment, approverID int64, reward decimal.Decimal, now time.Time) (*model.Assignment, error) {
	act := model.Activity{
		FamilyID:     c.FamilyID,
		ActorID:      &approverID,
		ChildID:      &a.AssigneeID,
		ChoreID:      &c.ID,
		AssignmentID: &a.ID,
		Kind:         model.ActivityApproved,
		Amount:       &reward,
		Detail:       c.Title,
	}

	if !(a.Pool && c.Recurring) {
		return s.updateVersioned(ctx, a, act,
			`UPDATE assignments SET is_approved = 1, approved_at = ?, approval_reward = ?, rejection_reason = NULL, version = version + 1`,
			now.UTC(), reward,
		)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE id = ? AND version = ?`, a.ID, a.Version)
	if err != nil {
		return nil, fmt.Errorf("release pool assignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("assignment %d at version %d: %w", a.ID, a.Version, ErrStale)
	}
	if err := markPoolApproved(ctx, tx, c.ID, now); err != nil {
		return nil, err
	}
	if err := insertActivity(ctx, tx, act); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	approvedAt := now.UTC()
	a.IsApproved = true
	a.ApprovedAt = &approvedAt
	a.ApprovalReward = &reward
	a.RejectionReason = nil
	a.Version++
	return &a, nil
}

// Reject resets the row to incomplete in place and records the reason.
func (s *AssignmentStore) Reject(ctx context.Context, c model.Chore, a model.Assignment, approverID int64, reason string) (*model.Assignment, error) {
	return s.updateVersioned(ctx, a,
		model.Activity{
			FamilyID:     c.FamilyID,
			ActorID:      &approverID,
			ChildID:      &a.AssigneeID,
			ChoreID:      &c.ID,
			AssignmentID: &a.ID,
			Kind:         model.ActivityRejected,
			Detail:       reason,
		},
		`UPDATE assignments SET is_completed = 0, completed_at = NULL, is_approved = 0, approved_at = NULL, approval_reward = NULL, rejection_reason = ?, version = version + 1`,
		reason,
	)
}

var assignmentViewCols = prefixCols("a", assignmentCols) + ", " + prefixCols("c", choreCols) + ", u.display_name"

func scanAssignmentView(s scanner) (*model.AssignmentView, error) {
	var v model.AssignmentView
	var completedAt, approvedAt, lastApproved sql.NullTime
	var reward, amount, min, max decimal.NullDecimal
	var reason sql.NullString
	var kind, mode string

	err := s.Scan(
		&v.ID, &v.ChoreID, &v.AssigneeID, &v.Pool, &v.IsCompleted, &v.IsApproved,
		&completedAt, &approvedAt, &reward, &reason, &v.Version,
		&v.Assignment.CreatedAt, &v.Assignment.UpdatedAt,
		&v.Chore.ID, &v.Chore.FamilyID, &v.Chore.CreatedBy, &v.Chore.Title, &v.Chore.Description,
		&kind, &amount, &min, &max,
		&v.Chore.Recurring, &v.Chore.CooldownDays, &mode, &v.Chore.Disabled, &lastApproved,
		&v.Chore.CreatedAt, &v.Chore.UpdatedAt,
		&v.AssigneeName,
	)
	if err != nil {
		return nil, err
	}
	v.CompletedAt = timePtr(completedAt)
	v.ApprovedAt = timePtr(approvedAt)
	v.ApprovalReward = decPtr(reward)
	if reason.Valid {
		v.RejectionReason = &reason.String
	}
	v.Chore.Reward = model.RewardPolicy{
		Kind:   model.RewardKind(kind),
		Amount: decPtr(amount),
		Min:    decPtr(min),
		Max:    decPtr(max),
	}
	v.Chore.AssignmentMode = model.AssignmentMode(mode)
	v.Chore.LastApprovedAt = timePtr(lastApproved)
	return &v, nil
}

func (s *AssignmentStore) queryViews(ctx context.Context, query string, args ...any) ([]model.AssignmentView, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []model.AssignmentView
	for rows.Next() {
		v, err := scanAssignmentView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// ListPendingForCreator returns completed, unapproved assignments across the
// chores parentID created, oldest completion first.
func (s *AssignmentStore) ListPendingForCreator(ctx context.Context, parentID int64) ([]model.AssignmentView, error) {
	return s.queryViews(ctx,
		`SELECT `+assignmentViewCols+`
		 FROM assignments a
		 JOIN chores c ON c.id = a.chore_id
		 JOIN users u ON u.id = a.assignee_id
		 WHERE c.created_by = ? AND a.is_completed = 1 AND a.is_approved = 0
		 ORDER BY a.completed_at ASC, a.id ASC`,
		parentID,
	)
}

// ListForAssignee returns every assignment the child holds on enabled chores.
// Availability is decided by the caller.
func (s *AssignmentStore) ListForAssignee(ctx context.Context, childID int64) ([]model.AssignmentView, error) {
	return s.queryViews(ctx,
		`SELECT `+assignmentViewCols+`
		 FROM assignments a
		 JOIN chores c ON c.id = a.chore_id
		 JOIN users u ON u.id = a.assignee_id
		 WHERE a.assignee_id = ? AND c.disabled = 0
		 ORDER BY c.title ASC, a.id ASC`,
		childID,
	)
}
