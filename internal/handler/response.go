// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/util"
)

// flashAndRedirect sets a flash message and redirects to the given URL.
// Uses http.StatusSeeOther (303) so the browser follows up with a GET.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, sm *session.Manager, url, message, messageType string) {
	sm.SetFlash(r.Context(), message, messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError sets an error flash message and redirects to the given URL.
func flashError(w http.ResponseWriter, r *http.Request, sm *session.Manager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, flashTypeDanger)
}

// flashSuccess sets a success flash message and redirects to the given URL.
func flashSuccess(w http.ResponseWriter, r *http.Request, sm *session.Manager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, flashTypeSuccess)
}

// parseFormOrRedirect parses the request form and redirects with an error message on failure.
// Returns true if parsing succeeded, false if it failed (and redirect was performed).
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, sm *session.Manager, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, sm, redirectURL, msgInvalidForm)
		return false
	}
	return true
}

// logAndHTTPError logs an error and writes an HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 Internal Server Error response.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}

// storageError logs a failed write and sends the user back with a generic flash.
func storageError(w http.ResponseWriter, r *http.Request, sm *session.Manager, url, logMsg string, args ...any) {
	slog.ErrorContext(r.Context(), logMsg, withRequestPath(r, args)...)
	flashError(w, r, sm, url, msgSomethingWrong)
}

// withRequestPath appends the path recorded by middleware.RequestPath, so
// storage failures in the event log show which page hit them.
func withRequestPath(r *http.Request, args []any) []any {
	path := middleware.GetRequestPath(r.Context())
	if path == "" {
		return args
	}
	return append(slices.Clip(args), "path", path)
}

// renderPage renders a page, falling back to a plain 500 when the template fails.
func renderPage(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, name string, data render.TemplateData) {
	if err := renderer.Render(w, r, name, data); err != nil {
		logAndInternalError(w, "failed to render template", "template", name, "error", err)
	}
}

// errorData is the payload of the error page.
type errorData struct {
	Status  int
	Message string
}

// renderError renders the error page with the given status.
func renderError(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, status int, message string) {
	data := render.TemplateData{
		Title: http.StatusText(status),
		Data:  errorData{Status: status, Message: message},
	}
	if err := renderer.RenderStatus(w, r, status, pageError, data); err != nil {
		logAndHTTPError(w, message, status, "failed to render error page", "error", err)
	}
}

// loadFailed logs a failed read and renders the 500 page.
func loadFailed(w http.ResponseWriter, r *http.Request, renderer *render.Renderer, logMsg string, args ...any) {
	slog.ErrorContext(r.Context(), logMsg, withRequestPath(r, args)...)
	renderError(w, r, renderer, http.StatusInternalServerError, msgSomethingWrong)
}

// parseIDParam parses the {id} URL parameter. Returns false for anything
// that is not a positive integer.
func parseIDParam(r *http.Request) (int64, bool) {
	return util.ParsePositiveID(chi.URLParam(r, "id"))
}

// validationMessage joins the field errors of a ValidationError into one
// flash line in field-name order. Returns "" if err is not a validation error.
func validationMessage(err error) string {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return ""
	}
	msgs := make([]string, 0, len(verr.Fields))
	for _, field := range slices.Sorted(maps.Keys(verr.Fields)) {
		msgs = append(msgs, verr.Fields[field])
	}
	return strings.Join(msgs, ". ") + "."
}
