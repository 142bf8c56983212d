// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/guardpost/internal/middleware"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/scheduler"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/testutil"
	"github.com/olegiv/guardpost/web"
)

const (
	testAdminPassword = "admin123"
	testUserPassword  = "alice-password"
)

var testCSRFKey = []byte("0123456789abcdef0123456789abcdef")

// fakeJobs is a fixed JobLister.
type fakeJobs []scheduler.JobInfo

func (f fakeJobs) Jobs() []scheduler.JobInfo { return f }

// testApp is the full router over a seeded temporary database.
type testApp struct {
	db     *sql.DB
	events *service.EventService
	lp     *middleware.LoginProtection
	server *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SeededDB(t)

	sm, err := session.New(session.Options{})
	require.NoError(t, err)

	renderer, err := render.New(render.Config{TemplatesFS: web.Templates, Sessions: sm})
	require.NoError(t, err)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	})
	t.Cleanup(lp.Close)

	events := service.NewEventService(db, nil)

	h := NewRouter(RouterConfig{
		DB:              db,
		Renderer:        renderer,
		Sessions:        sm,
		Events:          events,
		LoginProtection: lp,
		Jobs: fakeJobs{{
			Name:        scheduler.JobEventRetention,
			Description: "Delete old events",
			Schedule:    "@daily",
			NextRun:     time.Now().Add(time.Hour),
		}},
		Static:   web.Static,
		CSRF:     middleware.DefaultCSRFConfig(testCSRFKey, true, 8080),
		Security: middleware.DefaultSecurityHeadersConfig(true),
		DataDir:  t.TempDir(),
		Version:  "test",
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &testApp{db: db, events: events, lp: lp, server: srv}
}

// createUser adds an account with the given role.
func (a *testApp) createUser(t *testing.T, username, role string) int64 {
	t.Helper()
	return testutil.CreateUser(t, a.db, username, testUserPassword, role).ID
}

// client returns a cookie-keeping client that does not follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// get performs a GET and returns the response with its body read.
func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()

	resp, err := c.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

// post submits form values and returns the response with its body read.
func (a *testApp) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()

	resp, err := c.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

// login signs c in and returns the login response.
func (a *testApp) login(t *testing.T, c *http.Client, username, password string) *http.Response {
	t.Helper()

	resp, _ := a.post(t, c, RouteLogin, url.Values{
		"username": {username},
		"password": {password},
	})
	return resp
}

// signedIn returns a client logged in as username.
func (a *testApp) signedIn(t *testing.T, username, password string) *http.Client {
	t.Helper()

	c := a.client(t)
	resp := a.login(t, c, username, password)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.NotEqual(t, RouteLogin, location(resp), "login as %s failed", username)
	return c
}

// admin returns a client signed in as the bootstrap admin.
func (a *testApp) admin(t *testing.T) *http.Client {
	t.Helper()
	return a.signedIn(t, "admin", testAdminPassword)
}

// user returns a client signed in as a fresh regular user.
func (a *testApp) user(t *testing.T, username string) *http.Client {
	t.Helper()
	a.createUser(t, username, model.RoleUser)
	return a.signedIn(t, username, testUserPassword)
}

// followFlash follows a redirect and returns the page it lands on.
func (a *testApp) followFlash(t *testing.T, c *http.Client, resp *http.Response) string {
	t.Helper()

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_, body := a.get(t, c, location(resp))
	return body
}

func location(resp *http.Response) string {
	return resp.Header.Get("Location")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// flashOf extracts the flash banner text from a rendered page.
func flashOf(body string) string {
	const marker = `role="status">`
	i := strings.Index(body, marker)
	if i < 0 {
		return ""
	}
	rest := body[i+len(marker):]
	if j := strings.Index(rest, "</div>"); j >= 0 {
		return rest[:j]
	}
	return rest
}
