// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/util"
)

// VisitorsHandler handles visitor check-in, listing and check-out.
type VisitorsHandler struct {
	visitors       *service.VisitorService
	renderer       *render.Renderer
	sessionManager *session.Manager
	eventService   *service.EventService
}

// NewVisitorsHandler creates a new VisitorsHandler.
func NewVisitorsHandler(visitors *service.VisitorService, renderer *render.Renderer, sm *session.Manager, events *service.EventService) *VisitorsHandler {
	return &VisitorsHandler{
		visitors:       visitors,
		renderer:       renderer,
		sessionManager: sm,
		eventService:   events,
	}
}

// RegisterFormData is the payload of the registration form.
type RegisterFormData struct {
	IDTypes []string
}

// RegisterForm handles GET /register-visitor.
func (h *VisitorsHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, pageRegisterVisitor, render.TemplateData{
		Title: "Register Visitor",
		Data:  RegisterFormData{IDTypes: model.IDTypes},
	})
}

// Register handles POST /register-visitor.
func (h *VisitorsHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectRegisterVisitor) {
		return
	}

	id, _ := middleware.GetIdentity(r)
	visitor, err := h.visitors.RegisterVisitor(r.Context(), id.Username, service.VisitorInput{
		Name:     r.FormValue("name"),
		Contact:  r.FormValue("contact"),
		Purpose:  r.FormValue("purpose"),
		IDType:   r.FormValue("id_type"),
		IDNumber: r.FormValue("id_number"),
	})
	if msg := validationMessage(err); msg != "" {
		flashError(w, r, h.sessionManager, redirectRegisterVisitor, msg)
		return
	}
	if err != nil {
		storageError(w, r, h.sessionManager, redirectRegisterVisitor, "failed to register visitor", "error", err)
		return
	}

	slog.Info("visitor registered", "visitor_id", visitor.ID, "badge", visitor.Badge, "registered_by", id.Username)
	_ = h.eventService.LogVisitorEvent(r.Context(), "Visitor checked in", &id.UserID, util.ClientIP(r), map[string]any{
		"visitor_id": visitor.ID,
		"name":       visitor.Name,
		"badge":      visitor.Badge,
	})

	flashSuccess(w, r, h.sessionManager, redirectVisitorLogs, msgVisitorRegistered)
}

// Logs handles GET /visitor-logs.
func (h *VisitorsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.visitors.ListVisitors(r.Context())
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to list visitors", "error", err)
		return
	}

	renderPage(w, r, h.renderer, pageVisitorLogs, render.TemplateData{
		Title: "Visitor Logs",
		Data:  visitors,
	})
}

// Checkout handles GET and POST /checkout-visitor/{id}.
func (h *VisitorsHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	visitorID, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.sessionManager, redirectVisitorLogs, msgVisitorNotFound)
		return
	}

	changed, err := h.visitors.Checkout(r.Context(), visitorID)
	if errors.Is(err, service.ErrNotFound) {
		flashError(w, r, h.sessionManager, redirectVisitorLogs, msgVisitorNotFound)
		return
	}
	if err != nil {
		storageError(w, r, h.sessionManager, redirectVisitorLogs, "failed to check out visitor", "visitor_id", visitorID, "error", err)
		return
	}
	if !changed {
		flashAndRedirect(w, r, h.sessionManager, redirectVisitorLogs, msgVisitorAlreadyOut, flashTypeInfo)
		return
	}

	_ = h.eventService.LogVisitorEvent(r.Context(), "Visitor checked out", middleware.GetUserIDPtr(r), util.ClientIP(r), map[string]any{
		"visitor_id": visitorID,
	})

	flashSuccess(w, r, h.sessionManager, redirectVisitorLogs, msgVisitorCheckedOut)
}
