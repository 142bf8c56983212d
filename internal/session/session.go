// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session binds an authenticated identity to a server-side session
// addressed by an opaque cookie token.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/olegiv/guardpost/internal/model"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Session data keys.
const (
	keyUserID    = "user_id"
	keyUsername  = "username"
	keyRole      = "role"
	keyFlash     = "flash"
	keyFlashType = "flash_type"
)

// Options configures New.
type Options struct {
	// Store selects the backend: StoreMemory (default) or StoreSQLite.
	Store string
	// DB is required for StoreSQLite.
	DB *sql.DB
	// Secure marks the cookie Secure and gives it the __Host- prefix.
	Secure bool
}

// Identity is the authenticated principal carried by a session.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return model.IsAdminRole(i.Role)
}

// Manager wraps an scs.SessionManager with identity and flash helpers.
type Manager struct {
	*scs.SessionManager
}

// New creates a session manager. Sessions last 24 hours and expire after two
// hours without a request.
func New(opts Options) (*Manager, error) {
	sm := scs.New()

	switch opts.Store {
	case "", StoreMemory:
		sm.Store = memstore.New()
	case StoreSQLite:
		if opts.DB == nil {
			return nil, fmt.Errorf("session store %q requires a database", opts.Store)
		}
		sm.Store = sqlite3store.New(opts.DB)
	default:
		return nil, fmt.Errorf("unknown session store %q", opts.Store)
	}

	sm.Lifetime = 24 * time.Hour
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.Name = "guardpost_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = opts.Secure
	if opts.Secure {
		sm.Cookie.Name = "__Host-guardpost_session"
	}

	return &Manager{SessionManager: sm}, nil
}

// Login starts an authenticated session. The token is renewed first so a
// pre-login token cannot be reused.
func (m *Manager) Login(ctx context.Context, id Identity) error {
	if err := m.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	m.Put(ctx, keyUserID, id.UserID)
	m.Put(ctx, keyUsername, id.Username)
	m.Put(ctx, keyRole, id.Role)
	return nil
}

// Current returns the identity bound to the request's session.
func (m *Manager) Current(ctx context.Context) (Identity, bool) {
	userID := m.GetInt64(ctx, keyUserID)
	if userID == 0 {
		return Identity{}, false
	}
	return Identity{
		UserID:   userID,
		Username: m.GetString(ctx, keyUsername),
		Role:     m.GetString(ctx, keyRole),
	}, true
}

// Logout destroys the session. Data put afterwards in the same request starts
// a fresh anonymous session.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}

// SetFlash stores a one-shot message shown on the next rendered page.
func (m *Manager) SetFlash(ctx context.Context, message, kind string) {
	m.Put(ctx, keyFlash, message)
	m.Put(ctx, keyFlashType, kind)
}

// PopFlash returns and clears the pending flash message.
func (m *Manager) PopFlash(ctx context.Context) (message, kind string) {
	message = m.PopString(ctx, keyFlash)
	kind = m.PopString(ctx, keyFlashType)
	if message != "" && kind == "" {
		kind = "info"
	}
	return message, kind
}
