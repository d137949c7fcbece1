package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/chorely/internal/model"
)

func TestRegisterAndChildren(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	parent, alice, bob := seedFamily(t, ts)

	if parent.Role != model.RoleParent {
		t.Errorf("role = %q, want parent", parent.Role)
	}
	if alice.ParentRef() != parent.ID {
		t.Errorf("alice parent = %d, want %d", alice.ParentRef(), parent.ID)
	}
	if alice.FamilyID != parent.FamilyID {
		t.Errorf("alice family = %d, want %d", alice.FamilyID, parent.FamilyID)
	}

	p, err := ts.users.GetParent(ctx, parent.ID)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}
	if len(p.ChildIDs) != 2 || p.ChildIDs[0] != alice.ID || p.ChildIDs[1] != bob.ID {
		t.Errorf("child ids = %v, want [%d %d]", p.ChildIDs, alice.ID, bob.ID)
	}

	// Role mismatch resolves to nil.
	if c, err := ts.users.GetChild(ctx, parent.ID); err != nil || c != nil {
		t.Errorf("GetChild(parent) = %v, %v; want nil, nil", c, err)
	}
	if p, err := ts.users.GetParent(ctx, alice.ID); err != nil || p != nil {
		t.Errorf("GetParent(child) = %v, %v; want nil, nil", p, err)
	}

	children, err := ts.users.ListChildren(ctx, parent.FamilyID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 2 || children[0].DisplayName != "Alice" {
		t.Errorf("children = %+v", children)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	seedFamily(t, ts)

	_, _, err := ts.families.Register(ctx, "Joneses", "MOM", "Other mom", "hash")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// The family insert must have rolled back with the user.
	var n int
	if err := ts.db.QueryRow(`SELECT COUNT(*) FROM families`).Scan(&n); err != nil {
		t.Fatalf("count families: %v", err)
	}
	if n != 1 {
		t.Errorf("families = %d, want 1", n)
	}
}

func TestCreateChildDuplicate(t *testing.T) {
	ts := setupTestDB(t)
	parent, _, _ := seedFamily(t, ts)

	_, err := ts.users.CreateChild(context.Background(), parent, "Alice", "Again", "hash")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestRenameFamily(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	parent, _, _ := seedFamily(t, ts)

	f, err := ts.families.Rename(ctx, parent.FamilyID, "The Smiths")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if f.Name != "The Smiths" {
		t.Errorf("name = %q", f.Name)
	}
}

func TestDeleteChild(t *testing.T) {
	ts := setupTestDB(t)
	ctx := context.Background()
	_, alice, _ := seedFamily(t, ts)

	if err := ts.users.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := ts.users.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}
