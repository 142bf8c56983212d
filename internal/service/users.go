// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/guardpost/internal/auth"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/store"
)

// UserService is the credential store: account creation, lookup,
// authentication and deletion.
type UserService struct {
	queries *store.Queries
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{queries: store.New(db)}
}

// CreateUser hashes password and stores a new account.
func (s *UserService) CreateUser(ctx context.Context, username, password, role string) (store.User, error) {
	username = strings.TrimSpace(username)

	v := newValidator()
	v.required("username", "Username", username)
	v.required("password", "Password", password)
	v.required("role", "Role", role)
	v.oneOf("role", "Role", role, model.IsValidRole, model.ValidRoles)
	if err := v.err(); err != nil {
		return store.User{}, err
	}

	exists, err := s.queries.UsernameExists(ctx, username)
	if err != nil {
		return store.User{}, fmt.Errorf("checking username: %w", err)
	}
	if exists {
		return store.User{}, ErrDuplicateUsername
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		// Lost a race with a concurrent create of the same name.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.User{}, ErrDuplicateUsername
		}
		return store.User{}, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

// FindByUsername returns the account with the given username.
func (s *UserService) FindByUsername(ctx context.Context, username string) (store.User, error) {
	user, err := s.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("getting user %q: %w", username, err)
	}
	return user, nil
}

// GetByID returns the account with the given id.
func (s *UserService) GetByID(ctx context.Context, id int64) (store.User, error) {
	user, err := s.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("getting user %d: %w", id, err)
	}
	return user, nil
}

// Authenticate verifies a username and password pair. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (store.User, error) {
	user, err := s.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		auth.EqualizeTiming(password)
		return store.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return store.User{}, err
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("stored password hash is unreadable", "user_id", user.ID, "error", err)
		return store.User{}, ErrInvalidCredentials
	}
	if !valid {
		return store.User{}, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user.ID, password)
	}

	return user, nil
}

// rehash upgrades a stored hash to the current parameters. Failure is logged
// and does not affect the login.
func (s *UserService) rehash(ctx context.Context, id int64, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.queries.UpdateUserPassword(ctx, id, hash)
	}
	if err != nil {
		slog.Warn("failed to upgrade password hash", "user_id", id, "error", err)
		return
	}
	slog.Info("upgraded password hash", "user_id", id)
}

// DeleteUser removes account id on behalf of actorID. The bootstrap admin is
// protected no matter who asks, and an admin cannot remove themselves.
func (s *UserService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if id == model.BootstrapAdminID {
		return ErrProtectedAccount
	}
	if id == actorID {
		return ErrSelfDeletion
	}

	n, err := s.queries.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns all accounts, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]store.User, error) {
	users, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// CountUsers returns the number of accounts.
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.queries.CountUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
