// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the console templates once at startup and executes
// them with the session's identity and pending flash message.
package render

import (
	"bytes"
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/olegiv/guardpost/internal/markup"
	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/session"
)

// Layout and template directories inside the templates filesystem.
const (
	baseLayout  = "layouts/base.html"
	partialsDir = "partials"
	pagesDir    = "pages"
)

// blankLinesRegex matches runs of blank lines left behind by template actions.
var blankLinesRegex = regexp.MustCompile(`(\r?\n[ \t]*)+\r?\n`)

var titleCaser = cases.Title(language.English)

// Renderer holds the parsed page templates.
type Renderer struct {
	templates map[string]*template.Template
	sessions  *session.Manager
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS fs.FS
	Sessions    *session.Manager
}

// New parses every page under pages/ together with the base layout and the
// partials. Pages are addressed by file name without extension.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		sessions:  cfg.Sessions,
	}

	partials, err := fs.Glob(cfg.TemplatesFS, path.Join(partialsDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("listing partials: %w", err)
	}
	pages, err := fs.Glob(cfg.TemplatesFS, path.Join(pagesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no templates found in %s", pagesDir)
	}

	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")

		files := append([]string{baseLayout}, partials...)
		files = append(files, page)

		tmpl, err := template.New("").Funcs(TemplateFuncs()).ParseFS(cfg.TemplatesFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Data        any
	Flash       string
	FlashType   string
	User        session.Identity
	SignedIn    bool
	CurrentPath string
	CurrentYear int
}

// Render writes the page with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus fills in the request-scoped fields of data and writes the
// page. The template is executed into a buffer first so a failure never
// produces a half-written page.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.CurrentYear = time.Now().Year()
	data.CurrentPath = req.URL.Path
	data.User, data.SignedIn = middleware.GetIdentity(req)

	if r.sessions != nil && data.Flash == "" {
		data.Flash, data.FlashType = r.sessions.PopFlash(req.Context())
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	out := blankLinesRegex.ReplaceAll(buf.Bytes(), []byte("\n"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(out)
	return err
}

// TemplateFuncs returns the functions available to every template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDateTime": formatDateTime,
		"formatNullTime": func(t sql.NullTime, missing string) string {
			if !t.Valid {
				return missing
			}
			return formatDateTime(t.Time)
		},
		"nullString": func(s sql.NullString) string {
			return s.String
		},
		"since": func(t time.Time) string {
			d := time.Since(t)
			switch {
			case d < time.Minute:
				return "just now"
			case d < time.Hour:
				return fmt.Sprintf("%dm ago", int(d.Minutes()))
			case d < 48*time.Hour:
				return fmt.Sprintf("%dh ago", int(d.Hours()))
			default:
				return fmt.Sprintf("%dd ago", int(d.Hours()/24))
			}
		},
		"markdown": markup.Render,
		"truncate": func(s string, length int) string {
			if utf8.RuneCountInString(s) <= length {
				return s
			}
			return string([]rune(s)[:length]) + "..."
		},
		"humanize": func(s string) string {
			return titleCaser.String(strings.ReplaceAll(s, "_", " "))
		},
		"levelClass": func(level string) string {
			switch level {
			case "critical", "error":
				return "badge-critical"
			case "high", "warning":
				return "badge-high"
			case "medium":
				return "badge-medium"
			default:
				return "badge-low"
			}
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(start, end int) []int {
			var result []int
			for i := start; i <= end; i++ {
				result = append(result, i)
			}
			return result
		},
	}
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("Jan 2, 2006 15:04 UTC")
}
