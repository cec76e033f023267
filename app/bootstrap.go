package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"Gin_postgres_redis_tool_issuance/logger"
	"Gin_postgres_redis_tool_issuance/models"
	"Gin_postgres_redis_tool_issuance/store"
)

const passwordCost = 10

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), passwordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// BootstrapAdmin creates the configured admin account when the store has no
// admin yet.
func BootstrapAdmin(ctx context.Context, cfg Config, users store.UserStore) error {
	if cfg.BootstrapUsername == "" || cfg.BootstrapPassword == "" {
		logger.Debug(ctx).Msg("No bootstrap admin configured")
		return nil
	}

	admins, err := users.ListUsers(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}
	if len(admins) > 0 {
		return nil
	}

	hash, err := HashPassword(cfg.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}
	u := &models.User{Username: cfg.BootstrapUsername, PasswordHash: hash, Role: models.RoleAdmin}
	if err := users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("bootstrap admin %q: username taken by a non-admin", cfg.BootstrapUsername)
		}
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	logger.Info(ctx).Str("username", u.Username).Msg("Created bootstrap admin")
	return nil
}
