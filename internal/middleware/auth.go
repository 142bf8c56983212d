// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/store"
	"github.com/olegiv/guardpost/internal/util"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys.
const (
	ContextKeyIdentity    ContextKey = "identity"
	ContextKeyRequestPath ContextKey = "request_path"
)

// Redirect targets of the access guards.
const (
	loginPath         = "/login"
	userDashboardPath = "/user/dashboard"
)

// Guard flash messages.
const (
	MsgLoginRequired = "Please log in to access this page."
	MsgAdminRequired = "Admin access required."
)

// UserLookup resolves a session's user id to its account.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (store.User, error)
}

// LoadSession puts the session's identity into the request context. Sessions
// whose account has been deleted are destroyed and the request continues as
// anonymous. Must run inside the session manager's LoadAndSave.
func LoadSession(sm *session.Manager, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := sm.Current(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetByID(r.Context(), id.UserID)
			if errors.Is(err, service.ErrNotFound) {
				slog.Info("dropping session of deleted user", "user_id", id.UserID)
				_ = sm.Logout(r.Context())
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("loading session user", "user_id", id.UserID, "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			// The stored account is authoritative for username and role.
			id.Username = user.Username
			id.Role = user.Role

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the identity loaded by LoadSession.
func GetIdentity(r *http.Request) (session.Identity, bool) {
	id, ok := r.Context().Value(ContextKeyIdentity).(session.Identity)
	return id, ok
}

// GetUserIDPtr returns a pointer to the current user's ID, or nil when
// anonymous. Used for optional user IDs in event logging.
func GetUserIDPtr(r *http.Request) *int64 {
	if id, ok := GetIdentity(r); ok {
		userID := id.UserID
		return &userID
	}
	return nil
}

// RequireAuthenticated redirects anonymous requests to the login page with a
// warning flash.
func RequireAuthenticated(sm *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetIdentity(r); !ok {
				sm.SetFlash(r.Context(), MsgLoginRequired, "warning")
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits only admins. Authentication is checked first, so an
// anonymous request is sent to the login page rather than the user
// dashboard. Denials are logged at WARN, which also lands them in the event
// log.
func RequireAdmin(sm *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		guarded := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := GetIdentity(r)
			if id.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}

			slog.WarnContext(r.Context(), "access denied: admin role required",
				"category", model.EventCategoryAuth,
				"user_id", id.UserID,
				"ip", util.ClientIP(r),
				"method", r.Method,
				"path", r.URL.Path,
				"user_role", id.Role,
			)

			sm.SetFlash(r.Context(), MsgAdminRequired, "danger")
			http.Redirect(w, r, userDashboardPath, http.StatusSeeOther)
		})
		return RequireAuthenticated(sm)(guarded)
	}
}

// RequestPath stores the request path in the context for log enrichment.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, _ := ctx.Value(ContextKeyRequestPath).(string)
	return path
}
