// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/session"
	"github.com/olegiv/guardpost/internal/store"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[int64]store.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return store.User{}, service.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) delete(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type guardFixture struct {
	srv    *httptest.Server
	client *http.Client
	users  *fakeUsers
}

// newGuardFixture serves:
//
//	/as/{id}   logs in as user id
//	/whoami    identity and pending flash
//	/private   behind RequireAuthenticated
//	/admin     behind RequireAdmin
func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	sm, err := session.New(session.Options{})
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}

	users := &fakeUsers{users: map[int64]store.User{
		1: {ID: 1, Username: "admin", Role: model.RoleAdmin},
		2: {ID: 2, Username: "alice", Role: model.RoleUser},
	}}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /as/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		u, _ := users.GetByID(r.Context(), id)
		// Stale role in the session; LoadSession must refresh it.
		if err := sm.Login(r.Context(), session.Identity{UserID: id, Username: u.Username, Role: "stale"}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("GET /whoami", func(w http.ResponseWriter, r *http.Request) {
		id, signedIn := GetIdentity(r)
		msg, kind := sm.PopFlash(r.Context())
		_, _ = fmt.Fprintf(w, "%v|%s|%s|%s|%s", signedIn, id.Username, id.Role, msg, kind)
	})
	mux.Handle("GET /private", RequireAuthenticated(sm)(ok))
	mux.Handle("GET /admin", RequireAdmin(sm)(ok))

	srv := httptest.NewServer(sm.LoadAndSave(LoadSession(sm, users)(mux)))
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &guardFixture{srv: srv, client: client, users: users}
}

func (f *guardFixture) get(t *testing.T, path string) (int, string, string) {
	t.Helper()
	resp, err := f.client.Get(f.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return resp.StatusCode, resp.Header.Get("Location"), string(body)
}

func TestRequireAuthenticated_Anonymous(t *testing.T) {
	f := newGuardFixture(t)

	code, loc, _ := f.get(t, "/private")
	if code != http.StatusSeeOther || loc != "/login" {
		t.Fatalf("GET /private = %d %q, want 303 /login", code, loc)
	}

	_, _, body := f.get(t, "/whoami")
	if want := "false|||" + MsgLoginRequired + "|warning"; body != want {
		t.Errorf("whoami = %q, want %q", body, want)
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name      string
		loginAs   string
		wantCode  int
		wantLoc   string
		wantFlash string
	}{
		{"anonymous goes to login", "", http.StatusSeeOther, "/login", MsgLoginRequired + "|warning"},
		{"user goes to user dashboard", "2", http.StatusSeeOther, "/user/dashboard", MsgAdminRequired + "|danger"},
		{"admin passes", "1", http.StatusOK, "", "|"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGuardFixture(t)
			if tt.loginAs != "" {
				f.get(t, "/as/"+tt.loginAs)
			}

			code, loc, _ := f.get(t, "/admin")
			if code != tt.wantCode || loc != tt.wantLoc {
				t.Fatalf("GET /admin = %d %q, want %d %q", code, loc, tt.wantCode, tt.wantLoc)
			}

			_, _, body := f.get(t, "/whoami")
			if got := body[len(body)-len(tt.wantFlash):]; got != tt.wantFlash {
				t.Errorf("whoami = %q, want flash suffix %q", body, tt.wantFlash)
			}
		})
	}
}

func TestLoadSession_RefreshesRoleFromStore(t *testing.T) {
	f := newGuardFixture(t)
	f.get(t, "/as/2")

	_, _, body := f.get(t, "/whoami")
	if body != "true|alice|user||" {
		t.Errorf("whoami = %q, want %q", body, "true|alice|user||")
	}

	if code, _, _ := f.get(t, "/private"); code != http.StatusOK {
		t.Errorf("GET /private = %d, want 200", code)
	}
}

func TestLoadSession_DeletedUser(t *testing.T) {
	f := newGuardFixture(t)
	f.get(t, "/as/2")
	f.users.delete(2)

	_, _, body := f.get(t, "/whoami")
	if body != "false||||" {
		t.Errorf("whoami after delete = %q, want anonymous", body)
	}

	code, loc, _ := f.get(t, "/private")
	if code != http.StatusSeeOther || loc != "/login" {
		t.Errorf("GET /private = %d %q, want 303 /login", code, loc)
	}
}

func TestGetUserIDPtr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetUserIDPtr(req) != nil {
		t.Error("anonymous request should have nil user id")
	}

	ctx := context.WithValue(req.Context(), ContextKeyIdentity, session.Identity{UserID: 7})
	if p := GetUserIDPtr(req.WithContext(ctx)); p == nil || *p != 7 {
		t.Errorf("GetUserIDPtr() = %v, want 7", p)
	}
}

func TestRequestPath(t *testing.T) {
	var got string
	handler := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestPath(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/alerts", nil))

	if got != "/alerts" {
		t.Errorf("GetRequestPath() = %q, want /alerts", got)
	}
}
