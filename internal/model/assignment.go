package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assignment links one chore to one child and carries its completion state.
type Assignment struct {
	ID              int64            `json:"id"`
	ChoreID         int64            `json:"chore_id"`
	AssigneeID      int64            `json:"assignee_id"`
	Pool            bool             `json:"pool"`
	IsCompleted     bool             `json:"is_completed"`
	IsApproved      bool             `json:"is_approved"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	ApprovalReward  *decimal.Decimal `json:"approval_reward,omitempty"`
	RejectionReason *string          `json:"rejection_reason,omitempty"`
	Version         int64            `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// PendingApproval reports whether the child finished and a parent has not yet
// decided.
func (a Assignment) PendingApproval() bool {
	return a.IsCompleted && !a.IsApproved
}

// AssignmentView is an assignment joined with its chore for listings.
type AssignmentView struct {
	Assignment
	Chore        Chore  `json:"chore"`
	AssigneeName string `json:"assignee_name"`
}
