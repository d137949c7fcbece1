package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ActivityKind string

const (
	ActivityChoreCreated  ActivityKind = "chore_created"
	ActivityChoreUpdated  ActivityKind = "chore_updated"
	ActivityChoreDisabled ActivityKind = "chore_disabled"
	ActivityChoreEnabled  ActivityKind = "chore_enabled"
	ActivityChoreDeleted  ActivityKind = "chore_deleted"
	ActivityCompleted     ActivityKind = "completed"
	ActivityClaimed       ActivityKind = "claimed"
	ActivityApproved      ActivityKind = "approved"
	ActivityRejected      ActivityKind = "rejected"
	ActivityAdjustment    ActivityKind = "adjustment"
)

type Activity struct {
	ID           int64            `json:"id"`
	FamilyID     int64            `json:"family_id"`
	ActorID      *int64           `json:"actor_id,omitempty"`
	ChildID      *int64           `json:"child_id,omitempty"`
	ChoreID      *int64           `json:"chore_id,omitempty"`
	AssignmentID *int64           `json:"assignment_id,omitempty"`
	Kind         ActivityKind     `json:"kind"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	Detail       string           `json:"detail"`
	CreatedAt    time.Time        `json:"created_at"`
}
