// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/olegiv/certify-go/internal/auth"
	"github.com/olegiv/certify-go/internal/model"
)

// Seed creates the initial admin account when the users table is empty.
// It is a no-op on subsequent runs, and when no admin password is
// configured the application starts without any account (the admin UI
// is then unreachable until one is seeded).
func Seed(ctx context.Context, db *sql.DB, adminEmail, adminPassword string) error {
	queries := New(db)

	count, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		return nil
	}

	if adminPassword == "" {
		slog.Warn("no users exist and CERTIFY_ADMIN_PASSWORD is not set; admin UI will be unreachable")
		return nil
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Name:         "Administrator",
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("seeded admin user", "user_id", user.ID, "email", user.Email)
	return nil
}
