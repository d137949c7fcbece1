package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/metrics"
	"github.com/dukerupert/chorely/internal/model"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type notice struct {
	familyID       int64
	entity, action string
	id             int64
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (r *recordingNotifier) Notify(familyID int64, entity, action string, id int64) {
	r.mu.Lock()
	r.notices = append(r.notices, notice{familyID, entity, action, id})
	r.mu.Unlock()
}

func (r *recordingNotifier) last() notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notices[len(r.notices)-1]
}

type fixture struct {
	svc      *Services
	clock    *clock
	notifier *recordingNotifier
	parent   Actor
	alice    Actor
	bob      Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return seed(t, db)
}

func seed(t *testing.T, db *sql.DB) *fixture {
	t.Helper()
	f := &fixture{
		clock:    &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
	}
	f.svc = New(db, Options{
		Metrics:         metrics.New(),
		Notifier:        f.notifier,
		Now:             f.clock.Now,
		RejectReasonMin: 3,
	})

	ctx := context.Background()
	u, err := f.svc.Families.Register(ctx, Registration{FamilyName: "Smiths", Username: "mom", Password: "password1"})
	require.NoError(t, err)
	f.parent = Actor{UserID: u.ID, FamilyID: u.FamilyID, Role: model.RoleParent}

	alice, err := f.svc.Families.AddChild(ctx, f.parent, NewAccount{Username: "alice", DisplayName: "Alice", Password: "password1"})
	require.NoError(t, err)
	f.alice = Actor{UserID: alice.ID, FamilyID: alice.FamilyID, Role: model.RoleChild}

	bob, err := f.svc.Families.AddChild(ctx, f.parent, NewAccount{Username: "bob", DisplayName: "Bob", Password: "password1"})
	require.NoError(t, err)
	f.bob = Actor{UserID: bob.ID, FamilyID: bob.FamilyID, Role: model.RoleChild}
	return f
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}
