package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var parentID sql.NullInt64
	var role string
	err := s.Scan(&u.ID, &u.FamilyID, &parentID, &role, &u.Username, &u.DisplayName, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.ParentID = idPtr(parentID)
	u.Role = model.Role(role)
	return &u, nil
}

const userCols = `id, family_id, parent_id, role, username, display_name, password_hash, created_at, updated_at`

func (s *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// CreateChild adds a child account linked to parentID within the parent's
// family. A taken username yields ErrConflict.
func (s *UserStore) CreateChild(ctx context.Context, parent model.Parent, username, displayName, passwordHash string) (*model.Child, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (family_id, parent_id, role, username, display_name, password_hash) VALUES (?, ?, ?, ?, ?, ?)`,
		parent.FamilyID, parent.ID, string(model.RoleChild), username, displayName, passwordHash,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("username %q: %w", username, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetChild(ctx, id)
}

// GetParent resolves a parent and the ids of the children it created.
// Returns nil when id is missing or not a parent.
func (s *UserStore) GetParent(ctx context.Context, id int64) (*model.Parent, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil || u == nil || u.Role != model.RoleParent {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users WHERE parent_id = ? AND role = ? ORDER BY id`, id, string(model.RoleChild))
	if err != nil {
		return nil, fmt.Errorf("list child ids: %w", err)
	}
	defer rows.Close()

	p := &model.Parent{User: *u, ChildIDs: []int64{}}
	for rows.Next() {
		var childID int64
		if err := rows.Scan(&childID); err != nil {
			return nil, fmt.Errorf("scan child id: %w", err)
		}
		p.ChildIDs = append(p.ChildIDs, childID)
	}
	return p, rows.Err()
}

// GetChild returns nil when id is missing or not a child.
func (s *UserStore) GetChild(ctx context.Context, id int64) (*model.Child, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil || u == nil || u.Role != model.RoleChild {
		return nil, err
	}
	return &model.Child{User: *u}, nil
}

// ListChildren returns every child in the family, ordered by name.
func (s *UserStore) ListChildren(ctx context.Context, familyID int64) ([]model.Child, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE family_id = ? AND role = ? ORDER BY display_name ASC, id ASC`,
		familyID, string(model.RoleChild),
	)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		children = append(children, model.Child{User: *u})
	}
	return children, rows.Err()
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
