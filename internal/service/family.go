package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

type FamilyService struct {
	*deps
}

// Registration is the input for creating a family with its first parent.
type Registration struct {
	FamilyName  string
	Username    string
	DisplayName string
	Password    string
}

// NewAccount is the input for a child account.
type NewAccount struct {
	Username    string
	DisplayName string
	Password    string
}

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return "", validationf("password must be at least %d characters", auth.MinPasswordLen)
	}
	return hash, err
}

// Register creates a family and its first parent account.
func (s *FamilyService) Register(ctx context.Context, reg Registration) (*model.User, error) {
	reg.FamilyName = strings.TrimSpace(reg.FamilyName)
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.FamilyName == "" || reg.Username == "" {
		return nil, validationf("family name and username are required")
	}
	if reg.DisplayName == "" {
		reg.DisplayName = reg.Username
	}
	hash, err := hashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	family, user, err := s.families.Register(ctx, reg.FamilyName, reg.Username, reg.DisplayName, hash)
	if errors.Is(err, store.ErrConflict) {
		return nil, conflictf("username %q is taken", reg.Username)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("family registered", "family_id", family.ID, "user_id", user.ID)
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords fail
// the same way.
func (s *FamilyService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, newError(ErrUnauthenticated, "invalid username or password")
	}
	return u, nil
}

// Me returns the caller's account.
func (s *FamilyService) Me(ctx context.Context, actor Actor) (*model.User, error) {
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFoundf("user %d not found", actor.UserID)
	}
	return u, nil
}

func (s *FamilyService) Family(ctx context.Context, actor Actor) (*model.Family, error) {
	f, err := s.families.GetByID(ctx, actor.FamilyID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, notFoundf("family %d not found", actor.FamilyID)
	}
	return f, nil
}

func (s *FamilyService) RenameFamily(ctx context.Context, actor Actor, name string) (*model.Family, error) {
	if !actor.IsParent() {
		return nil, forbiddenf("only parents can rename the family")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("family name is required")
	}
	return s.families.Rename(ctx, actor.FamilyID, name)
}

// AddChild creates a child account linked to the calling parent.
func (s *FamilyService) AddChild(ctx context.Context, actor Actor, acct NewAccount) (*model.Child, error) {
	if !actor.IsParent() {
		return nil, forbiddenf("only parents can add children")
	}
	parent, err := s.users.GetParent(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, notFoundf("parent %d not found", actor.UserID)
	}

	acct.Username = strings.TrimSpace(acct.Username)
	if acct.Username == "" {
		return nil, validationf("username is required")
	}
	if acct.DisplayName == "" {
		acct.DisplayName = acct.Username
	}
	hash, err := hashPassword(acct.Password)
	if err != nil {
		return nil, err
	}

	child, err := s.users.CreateChild(ctx, *parent, acct.Username, acct.DisplayName, hash)
	if errors.Is(err, store.ErrConflict) {
		return nil, conflictf("username %q is taken", acct.Username)
	}
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(actor.FamilyID, "child", "created", child.ID)
	return child, nil
}

func (s *FamilyService) ListChildren(ctx context.Context, actor Actor) ([]model.Child, error) {
	children, err := s.users.ListChildren(ctx, actor.FamilyID)
	if err != nil {
		return nil, err
	}
	if children == nil {
		children = []model.Child{}
	}
	return children, nil
}

// RemoveChild deletes a child account with its assignments. Ledger history
// stays in the activity log.
func (s *FamilyService) RemoveChild(ctx context.Context, actor Actor, childID int64) error {
	if !actor.IsParent() {
		return forbiddenf("only parents can remove children")
	}
	child, err := s.childInFamily(ctx, actor.FamilyID, childID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, child.ID); err != nil {
		return err
	}
	s.logger.Info("child removed", "child_id", child.ID, "by", actor.UserID)
	s.notifier.Notify(actor.FamilyID, "child", "deleted", child.ID)
	return nil
}

// Activity returns the family's recent activity, newest first. limit is
// clamped to a sane window.
func (s *FamilyService) Activity(ctx context.Context, actor Actor, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	acts, err := s.activities.ListByFamily(ctx, actor.FamilyID, limit)
	if err != nil {
		return nil, err
	}
	if acts == nil {
		acts = []model.Activity{}
	}
	return acts, nil
}
