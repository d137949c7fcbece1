package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dukerupert/chorely/internal/model"
)

var (
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("conflicting row exists")

	// ErrStale is returned when an optimistic update finds the row changed
	// (or gone) since it was read.
	ErrStale = errors.New("row was modified concurrently")

	// ErrInUse is returned when a delete is refused because other rows still
	// reference the target.
	ErrInUse = errors.New("row is still referenced")
)

type scanner interface{ Scan(...any) error }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// prefixCols qualifies a comma separated column list with a table alias.
func prefixCols(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

func decPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}

func nullDec(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// insertActivity appends to the activity log using the caller's transaction so
// the log entry commits with the transition it describes.
func insertActivity(ctx context.Context, ex execer, a model.Activity) error {
	_, err := ex.ExecContext(ctx,
		`INSERT INTO activities (family_id, actor_id, child_id, chore_id, assignment_id, kind, amount, detail) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.FamilyID, nullID(a.ActorID), nullID(a.ChildID), nullID(a.ChoreID), nullID(a.AssignmentID),
		string(a.Kind), nullDec(a.Amount), a.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}
