// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/util"
)

// SuspectsHandler handles the admin watchlist.
type SuspectsHandler struct {
	suspects       *service.SuspectService
	renderer       *render.Renderer
	sessionManager *session.Manager
	eventService   *service.EventService
}

// NewSuspectsHandler creates a new SuspectsHandler.
func NewSuspectsHandler(suspects *service.SuspectService, renderer *render.Renderer, sm *session.Manager, events *service.EventService) *SuspectsHandler {
	return &SuspectsHandler{
		suspects:       suspects,
		renderer:       renderer,
		sessionManager: sm,
		eventService:   events,
	}
}

// LevelsFormData carries the selectable threat or severity levels.
type LevelsFormData struct {
	Levels []string
}

// AddForm handles GET /add-suspect.
func (h *SuspectsHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, h.renderer, pageAddSuspect, render.TemplateData{
		Title: "Add Suspect",
		Data:  LevelsFormData{Levels: model.ValidLevels},
	})
}

// Add handles POST /add-suspect.
func (h *SuspectsHandler) Add(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, redirectAddSuspect) {
		return
	}

	id, _ := middleware.GetIdentity(r)
	suspect, err := h.suspects.AddSuspect(r.Context(), id.Username, service.SuspectInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		LastSeen:    r.FormValue("last_seen"),
		ThreatLevel: r.FormValue("threat_level"),
	})
	if msg := validationMessage(err); msg != "" {
		flashError(w, r, h.sessionManager, redirectAddSuspect, msg)
		return
	}
	if err != nil {
		storageError(w, r, h.sessionManager, redirectAddSuspect, "failed to add suspect", "error", err)
		return
	}

	_ = h.eventService.LogSuspectEvent(r.Context(), "Suspect added to watchlist", &id.UserID, util.ClientIP(r), map[string]any{
		"suspect_id":   suspect.ID,
		"name":         suspect.Name,
		"threat_level": suspect.ThreatLevel,
	})

	flashSuccess(w, r, h.sessionManager, redirectSuspectRecords, msgSuspectAdded)
}

// Records handles GET /suspect-records.
func (h *SuspectsHandler) Records(w http.ResponseWriter, r *http.Request) {
	suspects, err := h.suspects.ListSuspects(r.Context())
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to list suspects", "error", err)
		return
	}

	renderPage(w, r, h.renderer, pageSuspectRecords, render.TemplateData{
		Title: "Suspect Records",
		Data:  suspects,
	})
}
