package auth

import "time"

type contextKey string

// SessionContextKey carries the *store.SessionRecord of the
// authenticated request.
const SessionContextKey contextKey = "session"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Session struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Roles      []string  `json:"roles"`
	IP         string    `json:"-"`
	UserAgent  string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	CSRFToken  string    `json:"-"`
}
