package chore

import (
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

type Status string

const (
	StatusOpen            Status = "open"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusCoolingDown     Status = "cooling_down"
	StatusDisabled        Status = "disabled"
)

// ComputeStatus determines where an assignment sits in its lifecycle at now.
// For StatusCoolingDown the returned time is when the assignment reopens.
func ComputeStatus(c model.Chore, a model.Assignment, now time.Time) (Status, *time.Time) {
	if c.Disabled {
		return StatusDisabled, nil
	}
	if !a.IsCompleted {
		return StatusOpen, nil
	}
	if !a.IsApproved {
		return StatusPendingApproval, nil
	}
	if !c.Recurring || a.ApprovedAt == nil {
		return StatusApproved, nil
	}

	next := a.ApprovedAt.Add(c.Cooldown())
	if now.Before(next) {
		return StatusCoolingDown, &next
	}
	return StatusOpen, nil
}

// Available reports whether the assignee may complete the assignment at now.
// An approved recurring assignment becomes available again once its cooldown
// has elapsed, without a new row.
func Available(c model.Chore, a model.Assignment, now time.Time) bool {
	status, _ := ComputeStatus(c, a, now)
	return status == StatusOpen
}

// PoolOpen reports whether an unassigned chore with no current holder can be
// claimed at now. A recurring pool chore stays closed for its cooldown after
// the last approval.
func PoolOpen(c model.Chore, now time.Time) (bool, *time.Time) {
	if c.Disabled || c.AssignmentMode != model.ModeUnassigned {
		return false, nil
	}
	if !c.Recurring || c.LastApprovedAt == nil {
		return true, nil
	}
	next := c.LastApprovedAt.Add(c.Cooldown())
	if now.Before(next) {
		return false, &next
	}
	return true, nil
}
