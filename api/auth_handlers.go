package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/yusufekamaulana/rsua-akreditasi/core/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var cred auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "auth.invalidPayload"})
		return
	}
	username := strings.ToLower(strings.TrimSpace(cred.Username))
	if username == "" || cred.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "auth.invalidPayload"})
		return
	}

	user, err := s.users.FindByUsername(r.Context(), username)
	if err != nil {
		s.logger.Errorf("login: lookup %s: %v", username, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "auth.internal"})
		return
	}
	now := time.Now().UTC()
	if user == nil || !user.IsActive {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "auth.invalidCredentials"})
		return
	}
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		s.logger.Warnf("login: account %s locked until %s", username, user.LockedUntil.Format(time.RFC3339))
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "auth.accountLocked"})
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, cred.Password, s.cfg.Pepper) {
		failed := user.FailedLogins + 1
		var lockedUntil *time.Time
		if max := s.cfg.Security.LoginMaxAttempts; max > 0 && failed >= max {
			t := now.Add(time.Duration(s.cfg.Security.LoginLockoutMin) * time.Minute)
			lockedUntil = &t
			failed = 0
		}
		if err := s.users.RecordLoginFailure(r.Context(), user.ID, failed, lockedUntil); err != nil {
			s.logger.Errorf("login: record failure %s: %v", username, err)
		}
		_ = s.audits.Append(r.Context(), &store.AuditEntry{
			ActorID: user.ID,
			Actor:   user.Username,
			Action:  "auth.login.failed",
			Payload: map[string]any{"ip": s.clientIP(r)},
		})
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "auth.invalidCredentials"})
		return
	}

	if err := s.users.RecordLoginSuccess(r.Context(), user.ID); err != nil {
		s.logger.Errorf("login: record success %s: %v", username, err)
	}
	sess, err := s.sessions.Create(r.Context(), user, s.clientIP(r), r.UserAgent())
	if err != nil {
		s.logger.Errorf("login: create session %s: %v", username, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "auth.internal"})
		return
	}
	_ = s.audits.Append(r.Context(), &store.AuditEntry{
		ActorID: user.ID,
		Actor:   user.Username,
		Action:  "auth.login",
		Payload: map[string]any{"ip": s.clientIP(r)},
	})

	secure := isHTTPSRequest(r, s.cfg)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  sess.ExpiresAt,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookie,
		Value:    sess.CSRFToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  sess.ExpiresAt,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":         user.ID,
			"username":   user.Username,
			"full_name":  user.FullName,
			"roles":      user.Roles,
			"department": user.Department,
		},
		"csrf_token": sess.CSRFToken,
		"expires_at": sess.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := r.Context().Value(auth.SessionContextKey).(*store.SessionRecord)
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		s.logger.Errorf("logout: delete session: %v", err)
	}
	_ = s.audits.Append(r.Context(), &store.AuditEntry{
		ActorID: sess.UserID,
		Actor:   sess.Username,
		Action:  "auth.logout",
	})
	expire := time.Unix(0, 0)
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", HttpOnly: true, Expires: expire})
	http.SetCookie(w, &http.Cookie{Name: csrfCookie, Value: "", Path: "/", Expires: expire})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := r.Context().Value(auth.SessionContextKey).(*store.SessionRecord)
	user, err := s.users.GetUser(r.Context(), sess.UserID)
	if err != nil || user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "auth.sessionInvalid"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         user.ID,
		"username":   user.Username,
		"full_name":  user.FullName,
		"roles":      user.Roles,
		"department": user.Department,
		"expires_at": sess.ExpiresAt,
	})
}
