// Package service holds the chore workflow: creation, completion and pool
// claims, parent approval, and the reward ledger. Handlers call it with
// already-validated values and map its *Error kinds to HTTP statuses.
package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dukerupert/chorely/internal/metrics"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID   int64
	FamilyID int64
	Role     model.Role
}

func (a Actor) IsParent() bool { return a.Role == model.RoleParent }
func (a Actor) IsChild() bool  { return a.Role == model.RoleChild }

// Notifier is told about committed changes so connected clients can refresh.
type Notifier interface {
	Notify(familyID int64, entity, action string, id int64)
}

type nopNotifier struct{}

func (nopNotifier) Notify(int64, string, string, int64) {}

type Options struct {
	Logger          *slog.Logger
	Metrics         *metrics.Metrics
	Notifier        Notifier
	Now             func() time.Time
	RejectReasonMin int
}

// Services bundles the domain services over one database.
type Services struct {
	Families    *FamilyService
	Chores      *ChoreService
	Assignments *AssignmentService
	Ledger      *LedgerService
}

type deps struct {
	families    *store.FamilyStore
	users       *store.UserStore
	chores      *store.ChoreStore
	assignments *store.AssignmentStore
	rewards     *store.RewardStore
	activities  *store.ActivityStore

	logger   *slog.Logger
	metrics  *metrics.Metrics
	notifier Notifier
	now      func() time.Time
}

func New(db *sql.DB, opts Options) *Services {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := &deps{
		families:    store.NewFamilyStore(db),
		users:       store.NewUserStore(db),
		chores:      store.NewChoreStore(db),
		assignments: store.NewAssignmentStore(db),
		rewards:     store.NewRewardStore(db),
		activities:  store.NewActivityStore(db),
		logger:      opts.Logger.With("component", "service"),
		metrics:     opts.Metrics,
		notifier:    opts.Notifier,
		now:         func() time.Time { return opts.Now().UTC() },
	}

	return &Services{
		Families:    &FamilyService{deps: d},
		Chores:      &ChoreService{deps: d},
		Assignments: &AssignmentService{deps: d, rejectReasonMin: opts.RejectReasonMin},
		Ledger:      &LedgerService{deps: d},
	}
}

// childInFamily resolves a child of the actor's family. Children of other
// families are reported as missing.
func (d *deps) childInFamily(ctx context.Context, familyID, childID int64) (*model.Child, error) {
	c, err := d.users.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.FamilyID != familyID {
		return nil, notFoundf("child %d not found", childID)
	}
	return c, nil
}

// choreInFamily loads a chore visible to the family.
func (d *deps) choreInFamily(ctx context.Context, familyID, choreID int64) (*model.Chore, error) {
	c, err := d.chores.GetByID(ctx, choreID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.FamilyID != familyID {
		return nil, notFoundf("chore %d not found", choreID)
	}
	return c, nil
}
