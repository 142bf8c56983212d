// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/util"
)

// UsersHandler handles account administration.
type UsersHandler struct {
	users          *service.UserService
	renderer       *render.Renderer
	sessionManager *session.Manager
	eventService   *service.EventService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(users *service.UserService, renderer *render.Renderer, sm *session.Manager, events *service.EventService) *UsersHandler {
	return &UsersHandler{
		users:          users,
		renderer:       renderer,
		sessionManager: sm,
		eventService:   events,
	}
}

// AddUserFormData is the payload of the account creation form.
type AddUserFormData struct {
	Roles []string
}

// List handles GET /admin/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to list users", "error", err)
		return
	}

	renderPage(w, r, h.renderer, pageManageUsers, render.TemplateData{
		Title: "Users",
		Data:  users,
	})
}

// AddForm handles GET /admin/add-user.
func (h *UsersHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, pageAddUser, render.TemplateData{
		Title: "Add User",
		Data:  AddUserFormData{Roles: model.ValidRoles},
	})
}

// Add handles POST /admin/add-user.
func (h *UsersHandler) Add(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectAdminAddUser) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), r.FormValue("username"), r.FormValue("password"), r.FormValue("role"))
	if errors.Is(err, service.ErrDuplicateUsername) {
		flashError(w, r, h.sessionManager, redirectAdminAddUser, msgUsernameExists)
		return
	}
	if msg := validationMessage(err); msg != "" {
		flashError(w, r, h.sessionManager, redirectAdminAddUser, msg)
		return
	}
	if err != nil {
		storageError(w, r, h.sessionManager, redirectAdminAddUser, "failed to create user", "error", err)
		return
	}

	slog.Info("user created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User created", middleware.GetUserIDPtr(r), util.ClientIP(r), map[string]any{
		"created_user_id": user.ID,
		"username":        user.Username,
		"role":            user.Role,
	})

	flashSuccess(w, r, h.sessionManager, redirectAdminUsers, fmt.Sprintf(msgUserCreated, user.Username))
}

// Delete handles GET and POST /admin/delete-user/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.sessionManager, redirectAdminUsers, msgUserNotFound)
		return
	}

	actor, _ := middleware.GetIdentity(r)
	err := h.users.DeleteUser(r.Context(), actor.UserID, userID)
	switch {
	case errors.Is(err, service.ErrProtectedAccount):
		slog.Warn("attempt to delete the main admin account",
			"category", model.EventCategoryUser,
			"user_id", actor.UserID,
			"ip", util.ClientIP(r),
		)
		flashError(w, r, h.sessionManager, redirectAdminUsers, msgProtectedAccount)
		return
	case errors.Is(err, service.ErrSelfDeletion):
		flashError(w, r, h.sessionManager, redirectAdminUsers, msgSelfDeletion)
		return
	case errors.Is(err, service.ErrNotFound):
		flashError(w, r, h.sessionManager, redirectAdminUsers, msgUserNotFound)
		return
	case err != nil:
		storageError(w, r, h.sessionManager, redirectAdminUsers, "failed to delete user", "target_id", userID, "error", err)
		return
	}

	slog.Info("user deleted", "target_id", userID, "deleted_by", actor.UserID)
	_ = h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo, "User deleted", &actor.UserID, util.ClientIP(r), map[string]any{
		"deleted_user_id": userID,
	})

	flashSuccess(w, r, h.sessionManager, redirectAdminUsers, msgUserDeleted)
}
