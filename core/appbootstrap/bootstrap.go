package appbootstrap

import (
	"context"
	"errors"

	"github.com/yusufekamaulana/rsua-akreditasi/config"
	"github.com/yusufekamaulana/rsua-akreditasi/core/auth"
	"github.com/yusufekamaulana/rsua-akreditasi/core/store"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"
)

// EnsureAdminUser creates the initial admin account on an empty user
// table. Requires a bootstrap password; refusing to invent one keeps
// default-credential installs impossible.
func EnsureAdminUser(ctx context.Context, users store.UsersStore, cfg *config.AppConfig, logger *utils.Logger) error {
	count, err := users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.Bootstrap.AdminPassword == "" {
		return errors.New("empty user table and no bootstrap admin password configured")
	}
	hash, err := auth.HashPassword(cfg.Bootstrap.AdminPassword, cfg.Pepper)
	if err != nil {
		return err
	}
	username := cfg.Bootstrap.AdminUsername
	if username == "" {
		username = "admin"
	}
	if _, err := users.CreateUser(ctx, &store.User{
		Username:     username,
		FullName:     "Administrator",
		PasswordHash: hash,
		Roles:        []string{"admin"},
		IsActive:     true,
	}); err != nil {
		return err
	}
	logger.Printf("bootstrap: created initial admin user %q", username)
	return nil
}
