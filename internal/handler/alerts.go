// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"net/http"

	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/store"
	"github.com/olegiv/guardpost/internal/util"
)

// AlertsHandler handles alert listing, creation and resolution.
type AlertsHandler struct {
	alerts         *service.AlertService
	renderer       *render.Renderer
	sessionManager *session.Manager
	eventService   *service.EventService
}

// NewAlertsHandler creates a new AlertsHandler.
func NewAlertsHandler(alerts *service.AlertService, renderer *render.Renderer, sm *session.Manager, events *service.EventService) *AlertsHandler {
	return &AlertsHandler{
		alerts:         alerts,
		renderer:       renderer,
		sessionManager: sm,
		eventService:   events,
	}
}

// AlertsData is the payload of the alerts page.
type AlertsData struct {
	Alerts []store.Alert
	Levels []string
}

// List handles GET /alerts.
func (h *AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.ListAlerts(r.Context())
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to list alerts", "error", err)
		return
	}

	renderPage(w, r, h.renderer, pageAlerts, render.TemplateData{
		Title: "Alerts",
		Data:  AlertsData{Alerts: alerts, Levels: model.ValidLevels},
	})
}

// Create handles POST /alerts.
func (h *AlertsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectAlerts) {
		return
	}

	id, _ := middleware.GetIdentity(r)
	alert, err := h.alerts.CreateAlert(r.Context(), id.Username, service.AlertInput{
		AlertType:   r.FormValue("alert_type"),
		Description: r.FormValue("description"),
		Severity:    r.FormValue("severity"),
		Location:    r.FormValue("location"),
	})
	if msg := validationMessage(err); msg != "" {
		flashError(w, r, h.sessionManager, redirectAlerts, msg)
		return
	}
	if err != nil {
		storageError(w, r, h.sessionManager, redirectAlerts, "failed to create alert", "error", err)
		return
	}

	_ = h.eventService.LogAlertEvent(r.Context(), "Alert raised", &id.UserID, util.ClientIP(r), map[string]any{
		"alert_id":   alert.ID,
		"alert_type": alert.AlertType,
		"severity":   alert.Severity,
	})

	flashSuccess(w, r, h.sessionManager, redirectAlerts, msgAlertCreated)
}

// Resolve handles GET and POST /resolve-alert/{id}.
func (h *AlertsHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	alertID, ok := parseIDParam(r)
	if !ok {
		flashError(w, r, h.sessionManager, redirectAlerts, msgAlertNotFound)
		return
	}

	changed, err := h.alerts.Resolve(r.Context(), alertID)
	if errors.Is(err, service.ErrNotFound) {
		flashError(w, r, h.sessionManager, redirectAlerts, msgAlertNotFound)
		return
	}
	if err != nil {
		storageError(w, r, h.sessionManager, redirectAlerts, "failed to resolve alert", "alert_id", alertID, "error", err)
		return
	}
	if !changed {
		flashAndRedirect(w, r, h.sessionManager, redirectAlerts, msgAlertAlready, flashTypeInfo)
		return
	}

	_ = h.eventService.LogAlertEvent(r.Context(), "Alert resolved", middleware.GetUserIDPtr(r), util.ClientIP(r), map[string]any{
		"alert_id": alertID,
	})

	flashSuccess(w, r, h.sessionManager, redirectAlerts, msgAlertResolved)
}
