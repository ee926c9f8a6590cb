package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	FullName     string     `json:"full_name,omitempty"`
	PasswordHash string     `json:"-"`
	Roles        []string   `json:"roles"`
	Department   string     `json:"department,omitempty"`
	IsActive     bool       `json:"is_active"`
	FailedLogins int        `json:"-"`
	LockedUntil  *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type UsersStore interface {
	CreateUser(ctx context.Context, user *User) (int64, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	UpdateUser(ctx context.Context, user *User) error
	CountUsers(ctx context.Context) (int, error)
	RecordLoginFailure(ctx context.Context, id int64, failedLogins int, lockedUntil *time.Time) error
	RecordLoginSuccess(ctx context.Context, id int64) error
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, username, full_name, password_hash, roles, department, is_active, failed_logins, locked_until, created_at, updated_at`

func (s *usersStore) CreateUser(ctx context.Context, user *User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users(username, full_name, password_hash, roles, department, is_active, failed_logins, locked_until, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		strings.ToLower(strings.TrimSpace(user.Username)), user.FullName, user.PasswordHash, rolesToJSON(user.Roles), user.Department, user.IsActive, 0, nil, now, now)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	user.ID = id
	return id, nil
}

func (s *usersStore) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

func (s *usersStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username=?`,
		strings.ToLower(strings.TrimSpace(username)))
	return scanUser(row)
}

func (s *usersStore) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *usersStore) UpdateUser(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET full_name=?, password_hash=?, roles=?, department=?, is_active=?, updated_at=?
		WHERE id=?`,
		user.FullName, user.PasswordHash, rolesToJSON(user.Roles), user.Department, user.IsActive, user.UpdatedAt, user.ID)
	return err
}

func (s *usersStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(id) FROM users`).Scan(&count)
	return count, err
}

func (s *usersStore) RecordLoginFailure(ctx context.Context, id int64, failedLogins int, lockedUntil *time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET failed_logins=?, locked_until=?, updated_at=? WHERE id=?`,
		failedLogins, nullableTime(lockedUntil), time.Now().UTC(), id)
	return err
}

func (s *usersStore) RecordLoginSuccess(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET failed_logins=0, locked_until=NULL, updated_at=? WHERE id=?`,
		time.Now().UTC(), id)
	return err
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var rolesJSON string
	var lockedUntil sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &rolesJSON, &u.Department, &u.IsActive, &u.FailedLogins, &lockedUntil, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Roles = rolesFromJSON(rolesJSON)
	if lockedUntil.Valid {
		t := lockedUntil.Time.UTC()
		u.LockedUntil = &t
	}
	return &u, nil
}

func rolesToJSON(roles []string) string {
	if len(roles) == 0 {
		return "[]"
	}
	buf, err := json.Marshal(roles)
	if err != nil {
		return "[]"
	}
	return string(buf)
}

func rolesFromJSON(raw string) []string {
	var roles []string
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		return nil
	}
	return roles
}
