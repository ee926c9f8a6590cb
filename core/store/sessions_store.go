package store

import (
	"context"
	"database/sql"
	"time"
)

type SessionRecord struct {
	ID         string    `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username"`
	Roles      []string  `json:"roles"`
	IP         string    `json:"ip,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CSRFToken  string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type SessionStore interface {
	SaveSession(ctx context.Context, sess *SessionRecord) error
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	UpdateActivity(ctx context.Context, id string, seenAt time.Time, ttl time.Duration) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type sessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) SessionStore {
	return &sessionStore{db: db}
}

func (s *sessionStore) SaveSession(ctx context.Context, sess *SessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions(id, user_id, username, roles, ip, user_agent, csrf_token, created_at, last_seen_at, expires_at)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		sess.ID, sess.UserID, sess.Username, rolesToJSON(sess.Roles), sess.IP, sess.UserAgent, sess.CSRFToken,
		sess.CreatedAt.UTC(), sess.LastSeenAt.UTC(), sess.ExpiresAt.UTC())
	return err
}

func (s *sessionStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, username, roles, ip, user_agent, csrf_token, created_at, last_seen_at, expires_at
		FROM sessions WHERE id=?`, id)
	var sess SessionRecord
	var rolesJSON string
	err := row.Scan(&sess.ID, &sess.UserID, &sess.Username, &rolesJSON, &sess.IP, &sess.UserAgent, &sess.CSRFToken, &sess.CreatedAt, &sess.LastSeenAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sess.Roles = rolesFromJSON(rolesJSON)
	return &sess, nil
}

func (s *sessionStore) UpdateActivity(ctx context.Context, id string, seenAt time.Time, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at=?, expires_at=? WHERE id=?`,
		seenAt.UTC(), seenAt.UTC().Add(ttl), id)
	return err
}

func (s *sessionStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	return err
}

func (s *sessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
