package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/yusufekamaulana/rsua-akreditasi/core/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/core/rbac"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
)

func TestAdminCreateAndUpdateUser(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", "", "admin")

	payload := map[string]any{
		"username":   "PJ.Bedah",
		"password":   "rahasia-123",
		"full_name":  "Penanggung Jawab Bedah",
		"roles":      []string{"pj"},
		"department": "Bedah",
	}
	rec := doHandler(t, s.handleAdminCreateUser, http.MethodPost, "/api/admin/users", payload, sessionFor(admin), nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var created store.User
	decodeBody(t, rec, &created)
	if created.Username != "pj.bedah" {
		t.Fatalf("create: username = %q, want pj.bedah", created.Username)
	}
	if !created.IsActive {
		t.Fatalf("create: new user should be active")
	}

	stored, err := s.users.FindByUsername(context.Background(), "pj.bedah")
	if err != nil || stored == nil {
		t.Fatalf("lookup created user: %+v (%v)", stored, err)
	}
	if !auth.VerifyPassword(stored.PasswordHash, "rahasia-123", s.cfg.Pepper) {
		t.Fatalf("stored password hash does not verify")
	}

	rec = doHandler(t, s.handleAdminCreateUser, http.MethodPost, "/api/admin/users", payload, sessionFor(admin), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate username: status %d, want 409", rec.Code)
	}
	var dup map[string]string
	decodeBody(t, rec, &dup)
	if dup["error"] != "admin.usernameTaken" {
		t.Fatalf("duplicate username: error = %q", dup["error"])
	}

	update := map[string]any{
		"full_name":  "PJ Bedah Sentral",
		"roles":      []string{"pj", "mutu"},
		"department": "Bedah Sentral",
		"is_active":  false,
		"password":   "ganti-456",
	}
	rec = doHandler(t, s.handleAdminUpdateUser, http.MethodPut, "/api/admin/users/2", update, sessionFor(admin),
		map[string]string{"id": "2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	stored, err = s.users.GetUser(context.Background(), stored.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload updated user: %v", err)
	}
	if stored.Department != "Bedah Sentral" || stored.IsActive || len(stored.Roles) != 2 {
		t.Fatalf("update not applied: %+v", stored)
	}
	if !auth.VerifyPassword(stored.PasswordHash, "ganti-456", s.cfg.Pepper) {
		t.Fatalf("updated password hash does not verify")
	}

	rec = doHandler(t, s.handleAdminListUsers, http.MethodGet, "/api/admin/users", nil, sessionFor(admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var listed struct {
		Users []store.User `json:"users"`
	}
	decodeBody(t, rec, &listed)
	if len(listed.Users) != 2 {
		t.Fatalf("list: %d users, want 2", len(listed.Users))
	}
}

func TestAdminCreateUserRejectsUnknownRole(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", "", "admin")

	payload := map[string]any{
		"username": "ns.baru",
		"password": "rahasia-123",
		"roles":    []string{"superuser"},
	}
	rec := doHandler(t, s.handleAdminCreateUser, http.MethodPost, "/api/admin/users", payload, sessionFor(admin), nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown role: status %d, want 422", rec.Code)
	}
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	mutu := createTestUser(t, s, "mutu.dewi", "", "mutu")

	guarded := s.requirePermission(rbac.PermAdminManage)(s.handleAdminListUsers)
	rec := doHandler(t, guarded, http.MethodGet, "/api/admin/users", nil, sessionFor(mutu), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("mutu on admin endpoint: status %d, want 403", rec.Code)
	}

	admin := createTestUser(t, s, "admin", "", "admin")
	rec = doHandler(t, guarded, http.MethodGet, "/api/admin/users", nil, sessionFor(admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin on admin endpoint: status %d, want 200", rec.Code)
	}
}

func TestAdminListRolesAndCategories(t *testing.T) {
	s := newTestServer(t)
	admin := createTestUser(t, s, "admin", "", "admin")

	rec := doHandler(t, s.handleAdminListRoles, http.MethodGet, "/api/admin/roles", nil, sessionFor(admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("roles: status %d", rec.Code)
	}
	var roles struct {
		Roles []map[string]string `json:"roles"`
	}
	decodeBody(t, rec, &roles)
	if len(roles.Roles) != 4 {
		t.Fatalf("roles: %d entries, want 4", len(roles.Roles))
	}

	rec = doHandler(t, s.handleListCategories, http.MethodGet, "/api/references/categories", nil, sessionFor(admin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categories: status %d", rec.Code)
	}
	var cats struct {
		Categories []map[string]string `json:"categories"`
	}
	decodeBody(t, rec, &cats)
	if len(cats.Categories) != 5 {
		t.Fatalf("categories: %d entries, want 5", len(cats.Categories))
	}
	if cats.Categories[0]["code"] == "" || cats.Categories[0]["name"] == "" {
		t.Fatalf("categories: missing code/name: %+v", cats.Categories[0])
	}
}
