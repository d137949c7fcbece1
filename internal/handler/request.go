package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/service"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateRewardInput, rewardInput{})
	return v
}

// decode reads a JSON body into dst and runs its validate tags. An empty body
// is accepted when allowEmpty is set.
func decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		return &service.Error{Kind: service.ErrValidation, Message: "invalid JSON: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		return &service.Error{Kind: service.ErrValidation, Message: describe(err)}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// rewardInput is the tagged union {kind: fixed, amount} | {kind: range, min,
// max}. Amounts accept JSON numbers or numeric strings.
type rewardInput struct {
	Kind   string      `json:"kind" validate:"required,oneof=fixed range"`
	Amount json.Number `json:"amount,omitempty" validate:"omitempty,numeric"`
	Min    json.Number `json:"min,omitempty" validate:"omitempty,numeric"`
	Max    json.Number `json:"max,omitempty" validate:"omitempty,numeric"`
}

func validateRewardInput(sl validator.StructLevel) {
	in := sl.Current().Interface().(rewardInput)
	switch in.Kind {
	case string(model.RewardFixed):
		if in.Amount == "" {
			sl.ReportError(in.Amount, "amount", "Amount", "required_for_fixed", "")
		}
		if in.Min != "" || in.Max != "" {
			sl.ReportError(in.Min, "min", "Min", "excluded_for_fixed", "")
		}
	case string(model.RewardRange):
		if in.Min == "" {
			sl.ReportError(in.Min, "min", "Min", "required_for_range", "")
		}
		if in.Max == "" {
			sl.ReportError(in.Max, "max", "Max", "required_for_range", "")
		}
		if in.Amount != "" {
			sl.ReportError(in.Amount, "amount", "Amount", "excluded_for_range", "")
		}
	}
}

// policy converts an already-validated input.
func (in rewardInput) policy() model.RewardPolicy {
	if in.Kind == string(model.RewardFixed) {
		return model.FixedReward(decimal.RequireFromString(in.Amount.String()))
	}
	return model.RangeReward(
		decimal.RequireFromString(in.Min.String()),
		decimal.RequireFromString(in.Max.String()),
	)
}

type registerRequest struct {
	FamilyName  string `json:"family_name" validate:"required,max=100"`
	Username    string `json:"username" validate:"required,min=3,max=32,alphanum"`
	DisplayName string `json:"display_name" validate:"max=64"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type childRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=32,alphanum"`
	DisplayName string `json:"display_name" validate:"max=64"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

type familyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type choreRequest struct {
	Title          string      `json:"title" validate:"required,max=200"`
	Description    string      `json:"description" validate:"max=2000"`
	Reward         rewardInput `json:"reward" validate:"required"`
	Recurring      bool        `json:"recurring"`
	CooldownDays   int         `json:"cooldown_days" validate:"min=0,max=365"`
	AssignmentMode string      `json:"assignment_mode" validate:"required,oneof=single multi_independent unassigned"`
	AssigneeIDs    []int64     `json:"assignee_ids" validate:"dive,gt=0"`
}

func (req choreRequest) draft() service.ChoreDraft {
	return service.ChoreDraft{
		Title:          req.Title,
		Description:    req.Description,
		Reward:         req.Reward.policy(),
		Recurring:      req.Recurring,
		CooldownDays:   req.CooldownDays,
		AssignmentMode: model.AssignmentMode(req.AssignmentMode),
		AssigneeIDs:    req.AssigneeIDs,
	}
}

type choreUpdateRequest struct {
	Title        string      `json:"title" validate:"required,max=200"`
	Description  string      `json:"description" validate:"max=2000"`
	Reward       rewardInput `json:"reward" validate:"required"`
	Recurring    bool        `json:"recurring"`
	CooldownDays int         `json:"cooldown_days" validate:"min=0,max=365"`
}

func (req choreUpdateRequest) update() service.ChoreUpdate {
	return service.ChoreUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Reward:       req.Reward.policy(),
		Recurring:    req.Recurring,
		CooldownDays: req.CooldownDays,
	}
}

type approveRequest struct {
	Reward *json.Number `json:"reward,omitempty" validate:"omitempty,numeric"`
}

func (req approveRequest) value() *decimal.Decimal {
	if req.Reward == nil {
		return nil
	}
	d := decimal.RequireFromString(req.Reward.String())
	return &d
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type adjustmentRequest struct {
	Amount json.Number `json:"amount" validate:"required,numeric"`
	Reason string      `json:"reason" validate:"required,max=200"`
}
