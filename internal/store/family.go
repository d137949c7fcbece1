package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(s scanner) (*model.Family, error) {
	var f model.Family
	if err := s.Scan(&f.ID, &f.Name, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

const familyCols = `id, name, created_at, updated_at`

func (s *FamilyStore) GetByID(ctx context.Context, id int64) (*model.Family, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) Rename(ctx context.Context, id int64, name string) (*model.Family, error) {
	if _, err := s.db.ExecContext(ctx, `UPDATE families SET name = ? WHERE id = ?`, name, id); err != nil {
		return nil, fmt.Errorf("rename family: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Register creates a family together with its first parent in a single
// transaction. A taken username yields ErrConflict.
func (s *FamilyStore) Register(ctx context.Context, familyName, username, displayName, passwordHash string) (*model.Family, *model.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO families (name) VALUES (?)`, familyName)
	if err != nil {
		return nil, nil, fmt.Errorf("insert family: %w", err)
	}
	familyID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	result, err = tx.ExecContext(ctx,
		`INSERT INTO users (family_id, role, username, display_name, password_hash) VALUES (?, ?, ?, ?, ?)`,
		familyID, string(model.RoleParent), username, displayName, passwordHash,
	)
	if isUniqueViolation(err) {
		return nil, nil, fmt.Errorf("username %q: %w", username, ErrConflict)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("insert parent: %w", err)
	}
	userID, err := result.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}

	family, err := s.GetByID(ctx, familyID)
	if err != nil {
		return nil, nil, err
	}
	user, err := NewUserStore(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return family, user, nil
}
