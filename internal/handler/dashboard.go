// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
)

// DashboardHandler serves the role dashboards.
type DashboardHandler struct {
	reports  *service.ReportService
	renderer *render.Renderer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(reports *service.ReportService, renderer *render.Renderer) *DashboardHandler {
	return &DashboardHandler{reports: reports, renderer: renderer}
}

// AdminDashboardData is the payload of the admin dashboard.
type AdminDashboardData struct {
	Summary service.Summary
	Matches []service.WatchlistMatch
}

// Admin handles GET /admin/dashboard.
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.Summary(r.Context())
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to load dashboard summary", "error", err)
		return
	}

	matches, err := h.reports.WatchlistMatches(r.Context())
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to load watchlist matches", "error", err)
		return
	}

	renderPage(w, r, h.renderer, pageAdminDashboard, render.TemplateData{
		Title: "Admin Dashboard",
		Data:  AdminDashboardData{Summary: summary, Matches: matches},
	})
}

// User handles GET /user/dashboard.
func (h *DashboardHandler) User(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reports.Summary(r.Context())
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to load dashboard summary", "error", err)
		return
	}

	renderPage(w, r, h.renderer, pageUserDashboard, render.TemplateData{
		Title: "Dashboard",
		Data:  summary,
	})
}
