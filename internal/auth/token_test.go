package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

func TestIssueAndParse(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)
	u := model.User{ID: 5, FamilyID: 9, Role: model.RoleChild}

	tok, err := ti.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ac, err := ti.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ac.UserID != 5 || ac.FamilyID != 9 || ac.Role != model.RoleChild {
		t.Errorf("auth context = %+v", ac)
	}
	if ac.TokenID == "" {
		t.Error("expected a token id")
	}

	other, err := ti.Issue(u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if other == tok {
		t.Error("tokens should carry distinct ids")
	}
}

func TestParseExpired(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)
	ti.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := ti.Issue(model.User{ID: 1, FamilyID: 1, Role: model.RoleParent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	ti.now = time.Now
	if _, err := ti.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseWrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer("one", time.Hour).Issue(model.User{ID: 1, FamilyID: 1, Role: model.RoleParent})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenIssuer("two", time.Hour).Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := NewTokenIssuer("secret", time.Hour).Parse("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("err = %v, want ErrPasswordTooShort", err)
	}
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected mismatch")
	}
}
