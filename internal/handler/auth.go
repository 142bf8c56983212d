// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/util"
)

// AuthHandler handles authentication routes.
type AuthHandler struct {
	users           *service.UserService
	renderer        *render.Renderer
	sessionManager  *session.Manager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
}

// NewAuthHandler creates a new AuthHandler. lp may be nil to disable
// account lockout.
func NewAuthHandler(users *service.UserService, renderer *render.Renderer, sm *session.Manager, events *service.EventService, lp *middleware.LoginProtection) *AuthHandler {
	return &AuthHandler{
		users:           users,
		renderer:        renderer,
		sessionManager:  sm,
		eventService:    events,
		loginProtection: lp,
	}
}

// dashboardFor returns the landing page for role.
func dashboardFor(role string) string {
	if model.IsAdminRole(role) {
		return redirectAdminDashboard
	}
	return redirectUserDashboard
}

// Index handles GET / by sending the caller to their dashboard, or to the
// login page when anonymous.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if id, ok := middleware.GetIdentity(r); ok {
		http.Redirect(w, r, dashboardFor(id.Role), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, redirectLogin, http.StatusSeeOther)
}

// LoginForm renders the login page.
// Already-authenticated users are sent to their dashboard.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if id, ok := middleware.GetIdentity(r); ok {
		http.Redirect(w, r, dashboardFor(id.Role), http.StatusSeeOther)
		return
	}

	renderPage(w, r, h.renderer, pageLogin, render.TemplateData{Title: "Login"})
}

// Login handles the login form submission.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectLogin) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		flashError(w, r, h.sessionManager, redirectLogin, msgCredentialsMissing)
		return
	}

	clientIP := util.ClientIP(r)
	userAgent := r.UserAgent()

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login attempt on locked account", nil, clientIP, userAgent, map[string]any{"username": username})
			flashError(w, r, h.sessionManager, redirectLogin, fmt.Sprintf(msgAccountLocked, formatDuration(remaining)))
			return
		}
	}

	user, err := h.users.Authenticate(r.Context(), username, password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		slog.Info("login failed", "username", username, "ip", clientIP)
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning, "Login failed: invalid credentials", nil, clientIP, userAgent, map[string]any{"username": username})
		h.failedAttempt(w, r, username)
		return
	}
	if err != nil {
		storageError(w, r, h.sessionManager, redirectLogin, "database error during login", "error", err)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}

	// Login renews the token to prevent session fixation.
	identity := session.Identity{UserID: user.ID, Username: user.Username, Role: user.Role}
	if err := h.sessionManager.Login(r.Context(), identity); err != nil {
		logAndInternalError(w, "session renewal error", "error", err)
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)
	_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged in", &user.ID, clientIP, userAgent, map[string]any{"username": user.Username})

	flashSuccess(w, r, h.sessionManager, dashboardFor(user.Role), msgLoginSuccessful)
}

// failedAttempt counts a failed login against username and answers with the
// matching flash: locked, attempts remaining, or plain invalid credentials.
// The lockout itself is logged by LoginProtection.
func (h *AuthHandler) failedAttempt(w http.ResponseWriter, r *http.Request, username string) {
	if h.loginProtection == nil {
		flashError(w, r, h.sessionManager, redirectLogin, msgInvalidCredentials)
		return
	}

	if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
		flashError(w, r, h.sessionManager, redirectLogin, fmt.Sprintf(msgAccountLocked, formatDuration(lockDuration)))
		return
	}

	remaining := h.loginProtection.GetRemainingAttempts(username)
	if remaining <= 3 && remaining > 0 {
		flashError(w, r, h.sessionManager, redirectLogin, fmt.Sprintf(msgAttemptsRemaining, remaining))
		return
	}
	flashError(w, r, h.sessionManager, redirectLogin, msgInvalidCredentials)
}

// Logout handles user logout. Accepts GET and POST.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, signedIn := middleware.GetIdentity(r)

	if signedIn {
		_ = h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo, "User logged out", &id.UserID, util.ClientIP(r), r.UserAgent(), nil)
	}

	if err := h.sessionManager.Logout(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
	}

	slog.Info("user logged out", "user_id", id.UserID)

	flashAndRedirect(w, r, h.sessionManager, redirectLogin, msgLoggedOut, flashTypeInfo)
}

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
