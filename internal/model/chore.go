package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AssignmentMode string

const (
	ModeSingle           AssignmentMode = "single"
	ModeMultiIndependent AssignmentMode = "multi_independent"
	ModeUnassigned       AssignmentMode = "unassigned"
)

func (m AssignmentMode) Valid() bool {
	switch m {
	case ModeSingle, ModeMultiIndependent, ModeUnassigned:
		return true
	}
	return false
}

type RewardKind string

const (
	RewardFixed RewardKind = "fixed"
	RewardRange RewardKind = "range"
)

// RewardPolicy is either a fixed amount or a [Min, Max] range decided at
// approval time. Only the fields of its Kind are meaningful.
type RewardPolicy struct {
	Kind   RewardKind       `json:"kind"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Min    *decimal.Decimal `json:"min,omitempty"`
	Max    *decimal.Decimal `json:"max,omitempty"`
}

func FixedReward(amount decimal.Decimal) RewardPolicy {
	return RewardPolicy{Kind: RewardFixed, Amount: &amount}
}

func RangeReward(min, max decimal.Decimal) RewardPolicy {
	return RewardPolicy{Kind: RewardRange, Min: &min, Max: &max}
}

type Chore struct {
	ID             int64          `json:"id"`
	FamilyID       int64          `json:"family_id"`
	CreatedBy      int64          `json:"created_by"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Reward         RewardPolicy   `json:"reward"`
	Recurring      bool           `json:"recurring"`
	CooldownDays   int            `json:"cooldown_days"`
	AssignmentMode AssignmentMode `json:"assignment_mode"`
	Disabled       bool           `json:"disabled"`
	LastApprovedAt *time.Time     `json:"last_approved_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Cooldown is the recurrence window as a duration.
func (c Chore) Cooldown() time.Duration {
	return time.Duration(c.CooldownDays) * 24 * time.Hour
}
