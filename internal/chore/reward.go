package chore

import (
	"errors"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/shopspring/decimal"
)

var (
	ErrRewardRequired   = errors.New("reward value is required for a range reward")
	ErrRewardOutOfRange = errors.New("reward value is outside the allowed range")
	ErrRewardMismatch   = errors.New("reward value must equal the fixed amount")
)

// ValidateReward checks the reward-policy invariant: a fixed policy carries a
// single non-negative amount, a range policy carries min < max and nothing
// else.
func ValidateReward(p model.RewardPolicy) error {
	switch p.Kind {
	case model.RewardFixed:
		if p.Amount == nil {
			return errors.New("fixed reward requires an amount")
		}
		if p.Min != nil || p.Max != nil {
			return errors.New("fixed reward cannot also set min or max")
		}
		if p.Amount.IsNegative() {
			return errors.New("fixed reward amount must be >= 0")
		}
	case model.RewardRange:
		if p.Min == nil || p.Max == nil {
			return errors.New("range reward requires min and max")
		}
		if p.Amount != nil {
			return errors.New("range reward cannot also set a fixed amount")
		}
		if p.Min.IsNegative() {
			return errors.New("range reward min must be >= 0")
		}
		if !p.Min.LessThan(*p.Max) {
			return errors.New("range reward min must be less than max")
		}
	default:
		return fmt.Errorf("unknown reward kind %q", p.Kind)
	}
	return nil
}

// ResolveReward returns the amount granted at approval. For a fixed policy the
// value may be omitted or must equal the amount; for a range policy it is
// required and must satisfy min <= value <= max.
func ResolveReward(p model.RewardPolicy, value *decimal.Decimal) (decimal.Decimal, error) {
	switch p.Kind {
	case model.RewardFixed:
		if value != nil && !value.Equal(*p.Amount) {
			return decimal.Zero, fmt.Errorf("%w: got %s, want %s", ErrRewardMismatch, value, p.Amount)
		}
		return *p.Amount, nil
	case model.RewardRange:
		if value == nil {
			return decimal.Zero, ErrRewardRequired
		}
		if value.LessThan(*p.Min) || value.GreaterThan(*p.Max) {
			return decimal.Zero, fmt.Errorf("%w: %s not in [%s, %s]", ErrRewardOutOfRange, value, p.Min, p.Max)
		}
		return *value, nil
	}
	return decimal.Zero, fmt.Errorf("unknown reward kind %q", p.Kind)
}
