// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/guardpost/internal/auth"
	"github.com/olegiv/guardpost/internal/model"
)

// Bootstrap administrator credentials.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// Seed creates the bootstrap administrator (id 1) when it does not exist.
// An empty password selects DefaultAdminPassword. It reports whether the
// account was created.
func Seed(ctx context.Context, db *sql.DB, password string) (bool, error) {
	queries := New(db)

	_, err := queries.GetUserByID(ctx, model.BootstrapAdminID)
	if err == nil {
		slog.Debug("bootstrap admin already exists, skipping seed")
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("checking for bootstrap admin: %w", err)
	}

	usingDefault := password == ""
	if usingDefault {
		password = DefaultAdminPassword
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUserWithID(ctx, model.BootstrapAdminID, CreateUserParams{
		Username:     DefaultAdminUsername,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("creating bootstrap admin: %w", err)
	}

	slog.Info("created bootstrap admin", "id", user.ID, "username", user.Username)
	if usingDefault {
		slog.Warn("bootstrap admin uses the default password, change it immediately",
			"category", model.EventCategorySystem, "username", user.Username)
	}

	return true, nil
}
