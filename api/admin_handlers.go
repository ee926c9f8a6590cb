package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yusufekamaulana/rsua-akreditasi/core/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/core/engine"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
)

// roleCatalog is the fixed role vocabulary; accounts only ever carry
// roles from this list.
var roleCatalog = []map[string]string{
	{"name": "perawat", "description": "Pelapor insiden di unit"},
	{"name": "pj", "description": "Penanggung jawab unit, review tingkat unit"},
	{"name": "mutu", "description": "Komite mutu, review akhir dan penutupan"},
	{"name": "admin", "description": "Administrator sistem"},
}

func validRole(name string) bool {
	for _, role := range roleCatalog {
		if role["name"] == name {
			return true
		}
	}
	return false
}

type adminUserPayload struct {
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	FullName   string   `json:"full_name"`
	Roles      []string `json:"roles"`
	Department string   `json:"department"`
	IsActive   *bool    `json:"is_active"`
}

func (p *adminUserPayload) validateRoles() bool {
	if len(p.Roles) == 0 {
		return false
	}
	for _, role := range p.Roles {
		if !validRole(role) {
			return false
		}
	}
	return true
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.logger.Errorf("admin: list users: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "admin.internal"})
		return
	}
	if users == nil {
		users = []*store.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var payload adminUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "admin.invalidPayload"})
		return
	}
	username := strings.ToLower(strings.TrimSpace(payload.Username))
	if username == "" || payload.Password == "" || !payload.validateRoles() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "admin.invalidPayload"})
		return
	}

	existing, err := s.users.FindByUsername(r.Context(), username)
	if err != nil {
		s.logger.Errorf("admin: lookup %s: %v", username, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "admin.internal"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "admin.usernameTaken"})
		return
	}

	hash, err := auth.HashPassword(payload.Password, s.cfg.Pepper)
	if err != nil {
		s.logger.Errorf("admin: hash password for %s: %v", username, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "admin.internal"})
		return
	}
	user := &store.User{
		Username:     username,
		FullName:     payload.FullName,
		PasswordHash: hash,
		Roles:        payload.Roles,
		Department:   payload.Department,
		IsActive:     true,
	}
	if payload.IsActive != nil {
		user.IsActive = *payload.IsActive
	}
	if _, err := s.users.CreateUser(r.Context(), user); err != nil {
		s.logger.Errorf("admin: create user %s: %v", username, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "admin.internal"})
		return
	}
	_ = s.audits.Append(r.Context(), &store.AuditEntry{
		ActorID: sess.UserID,
		Actor:   sess.Username,
		Action:  "admin.user.create",
		Payload: map[string]any{"user_id": user.ID, "username": user.Username, "roles": user.Roles},
	})
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleAdminUpdateUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, ok := idParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "admin.invalidID"})
		return
	}
	user, err := s.users.GetUser(r.Context(), id)
	if err != nil {
		s.logger.Errorf("admin: get user %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "admin.internal"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "admin.userNotFound"})
		return
	}

	var payload adminUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "admin.invalidPayload"})
		return
	}
	if !payload.validateRoles() {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "admin.invalidPayload"})
		return
	}
	user.FullName = payload.FullName
	user.Roles = payload.Roles
	user.Department = payload.Department
	if payload.IsActive != nil {
		user.IsActive = *payload.IsActive
	}
	if payload.Password != "" {
		hash, err := auth.HashPassword(payload.Password, s.cfg.Pepper)
		if err != nil {
			s.logger.Errorf("admin: hash password for %s: %v", user.Username, err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "admin.internal"})
			return
		}
		user.PasswordHash = hash
	}
	if err := s.users.UpdateUser(r.Context(), user); err != nil {
		s.logger.Errorf("admin: update user %d: %v", id, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "admin.internal"})
		return
	}
	_ = s.audits.Append(r.Context(), &store.AuditEntry{
		ActorID: sess.UserID,
		Actor:   sess.Username,
		Action:  "admin.user.update",
		Payload: map[string]any{"user_id": user.ID, "username": user.Username, "roles": user.Roles, "is_active": user.IsActive},
	})
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleAdminListRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"roles": roleCatalog})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories := make([]map[string]string, 0, len(engine.Categories()))
	for _, c := range engine.Categories() {
		categories = append(categories, map[string]string{
			"code": string(c),
			"name": engine.CategoryLabel(c),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}
