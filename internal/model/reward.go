package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardAdjustment is a manual ledger entry applied by a parent.
type RewardAdjustment struct {
	ID        int64           `json:"id"`
	FamilyID  int64           `json:"family_id"`
	ChildID   int64           `json:"child_id"`
	CreatedBy *int64          `json:"created_by,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

type Balance struct {
	ChildID     int64           `json:"child_id"`
	ChildName   string          `json:"child_name"`
	Earned      decimal.Decimal `json:"earned"`
	Adjustments decimal.Decimal `json:"adjustments"`
	Payouts     decimal.Decimal `json:"payouts"`
	Balance     decimal.Decimal `json:"balance"`
}
