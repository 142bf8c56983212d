// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
)

// requestTimeout bounds every request.
const requestTimeout = 30 * time.Second

// RouterConfig carries everything the HTTP layer depends on.
type RouterConfig struct {
	DB              *sql.DB
	Renderer        *render.Renderer
	Sessions        *session.Manager
	Events          *service.EventService
	LoginProtection *middleware.LoginProtection
	// Jobs lists scheduled jobs on the event log page. Optional.
	Jobs JobLister
	// Static holds the files served under /static/. Optional.
	Static fs.FS

	CSRF     middleware.CSRFConfig
	Security middleware.SecurityHeadersConfig

	// DataDir is the directory of the database file, for the disk check.
	DataDir string
	Version string
	// AccessLog enables chi's request logger.
	AccessLog bool
}

// NewRouter builds the application's chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	users := service.NewUserService(cfg.DB)
	visitors := service.NewVisitorService(cfg.DB)
	suspects := service.NewSuspectService(cfg.DB)
	alerts := service.NewAlertService(cfg.DB)
	reports := service.NewReportService(cfg.DB)

	sm := cfg.Sessions
	authHandler := NewAuthHandler(users, cfg.Renderer, sm, cfg.Events, cfg.LoginProtection)
	dashboardHandler := NewDashboardHandler(reports, cfg.Renderer)
	visitorsHandler := NewVisitorsHandler(visitors, cfg.Renderer, sm, cfg.Events)
	suspectsHandler := NewSuspectsHandler(suspects, cfg.Renderer, sm, cfg.Events)
	alertsHandler := NewAlertsHandler(alerts, cfg.Renderer, sm, cfg.Events)
	usersHandler := NewUsersHandler(users, cfg.Renderer, sm, cfg.Events)
	eventsHandler := NewEventsHandler(cfg.Events, users, cfg.Jobs, cfg.Renderer)
	healthHandler := NewHealthHandler(cfg.DB, cfg.DataDir, cfg.Version)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.AccessLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.GetHead)                      // Handle HEAD requests for uptime monitoring
	r.Use(middleware.Timeout(requestTimeout)) // 30 second request timeout
	r.Use(middleware.StripTrailingSlash)      // Redirect /path/ to /path (301)
	r.Use(middleware.SecurityHeaders(cfg.Security))
	r.Use(middleware.RequestPath)

	if cfg.Static != nil {
		r.Handle(RouteStatic, http.StripPrefix("/static/", http.FileServerFS(cfg.Static)))
	}

	// Liveness skips sessions so monitors do not mint cookies.
	r.Get(RouteHealthLive, healthHandler.Liveness)

	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(cfg.CSRF))
		r.Use(sm.LoadAndSave)
		r.Use(middleware.LoadSession(sm, users))

		r.Get(RouteHealth, healthHandler.Health)
		r.Get(RouteHealthReady, healthHandler.Readiness)

		r.Get(RouteRoot, authHandler.Index)
		r.Get(RouteLogin, authHandler.LoginForm)
		if cfg.LoginProtection != nil {
			r.With(cfg.LoginProtection.Middleware()).Post(RouteLogin, authHandler.Login)
		} else {
			r.Post(RouteLogin, authHandler.Login)
		}
		r.Get(RouteLogout, authHandler.Logout)
		r.Post(RouteLogout, authHandler.Logout)

		// Any signed-in user.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuthenticated(sm))

			r.Get(RouteUserDashboard, dashboardHandler.User)

			r.Get(RouteRegisterVisitor, visitorsHandler.RegisterForm)
			r.Post(RouteRegisterVisitor, visitorsHandler.Register)
			r.Get(RouteVisitorLogs, visitorsHandler.Logs)
			r.Get(RouteCheckoutVisitor, visitorsHandler.Checkout)
			r.Post(RouteCheckoutVisitor, visitorsHandler.Checkout)

			r.Get(RouteAlerts, alertsHandler.List)
			r.Post(RouteAlerts, alertsHandler.Create)
			r.Get(RouteResolveAlert, alertsHandler.Resolve)
			r.Post(RouteResolveAlert, alertsHandler.Resolve)
		})

		// Admins only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(sm))

			r.Get(RouteAdminDashboard, dashboardHandler.Admin)

			r.Get(RouteAddSuspect, suspectsHandler.AddForm)
			r.Post(RouteAddSuspect, suspectsHandler.Add)
			r.Get(RouteSuspectRecords, suspectsHandler.Records)

			r.Get(RouteAdminUsers, usersHandler.List)
			r.Get(RouteAdminAddUser, usersHandler.AddForm)
			r.Post(RouteAdminAddUser, usersHandler.Add)
			r.Get(RouteAdminDeleteUser, usersHandler.Delete)
			r.Post(RouteAdminDeleteUser, usersHandler.Delete)

			r.Get(RouteAdminEvents, eventsHandler.List)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			renderError(w, r, cfg.Renderer, http.StatusNotFound, "Page not found.")
		})
	})

	return r
}
