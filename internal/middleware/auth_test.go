package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*auth.TokenIssuer, *store.UserStore, *model.User) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, u, err := store.NewFamilyStore(db).Register(context.Background(), "Smiths", "mom", "Mom", "hash")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return auth.NewTokenIssuer("test-secret", time.Hour), store.NewUserStore(db), u
}

func TestRequireAuthNoToken(t *testing.T) {
	tokens, users, _ := setupAuthMiddlewareDB(t)

	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	tokens, users, _ := setupAuthMiddlewareDB(t)

	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens, users, u := setupAuthMiddlewareDB(t)
	tok, err := tokens.Issue(*u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var got auth.AuthContext
	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.UserID != u.ID || got.FamilyID != u.FamilyID || got.Role != model.RoleParent {
		t.Errorf("auth context = %+v", got)
	}
}

func TestRequireAuthDeletedUser(t *testing.T) {
	tokens, users, u := setupAuthMiddlewareDB(t)
	tok, err := tokens.Issue(*u)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := users.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestWebsocketTokenQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/ws?token=abc", nil)
	if got := bearerToken(req); got != "" {
		t.Errorf("query token accepted without upgrade: %q", got)
	}
	req.Header.Set("Upgrade", "websocket")
	if got := bearerToken(req); got != "abc" {
		t.Errorf("bearerToken = %q, want abc", got)
	}
}

func TestRoleGuards(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name  string
		guard func(http.Handler) http.Handler
		role  model.Role
		want  int
	}{
		{"parent passes parent guard", RequireParent, model.RoleParent, http.StatusOK},
		{"child blocked by parent guard", RequireParent, model.RoleChild, http.StatusForbidden},
		{"child passes child guard", RequireChild, model.RoleChild, http.StatusOK},
		{"parent blocked by child guard", RequireChild, model.RoleParent, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1, Role: tt.role}))
			rec := httptest.NewRecorder()
			tt.guard(ok).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
