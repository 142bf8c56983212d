// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/guardpost/internal/auth"
	"github.com/olegiv/guardpost/internal/model"
)

// testDB creates a temporary migrated database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "guardpost-test-*.db")
	require.NoError(t, err)
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testDB(t)

	require.NoError(t, Migrate(db))

	version, err := SchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	user, err := q.CreateUser(ctx, CreateUserParams{
		Username:     "alice",
		PasswordHash: "hash",
		Role:         model.RoleUser,
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, model.RoleUser, user.Role)

	got, err := q.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	exists, err := q.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	params := CreateUserParams{Username: "bob", PasswordHash: "h", Role: model.RoleUser, CreatedAt: time.Now().UTC()}
	_, err := q.CreateUser(ctx, params)
	require.NoError(t, err)

	_, err = q.CreateUser(ctx, params)
	assert.Error(t, err, "unique constraint should reject the second insert")
}

func TestCreateUser_RoleConstraint(t *testing.T) {
	db := testDB(t)

	_, err := New(db).CreateUser(context.Background(), CreateUserParams{
		Username: "mallory", PasswordHash: "h", Role: "superuser", CreatedAt: time.Now().UTC(),
	})
	assert.Error(t, err)
}

func TestDeleteUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	user, err := q.CreateUser(ctx, CreateUserParams{Username: "carol", PasswordHash: "h", Role: model.RoleUser, CreatedAt: time.Now().UTC()})
	require.NoError(t, err)

	n, err := q.DeleteUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = q.DeleteUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = q.GetUserByID(ctx, user.ID)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestListUsers_NewestFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i, name := range []string{"first", "second", "third"} {
		_, err := q.CreateUser(ctx, CreateUserParams{
			Username: name, PasswordHash: "h", Role: model.RoleUser,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	users, err := q.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "third", users[0].Username)
	assert.Equal(t, "first", users[2].Username)

	count, err := q.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCheckoutVisitor(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	checkIn := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	v, err := q.CreateVisitor(ctx, CreateVisitorParams{
		Name: "Dana", Contact: "555-0100", Purpose: "Delivery",
		IDType: "passport", IDNumber: "X123", Badge: "badge-1",
		CheckIn: checkIn, RegisteredBy: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, model.VisitorCheckedIn, v.Status)
	assert.False(t, v.CheckOut.Valid)
	assert.True(t, v.CheckIn.Equal(checkIn))

	first := time.Now().UTC().Truncate(time.Second)
	changed, err := q.CheckoutVisitor(ctx, v.ID, first)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = q.CheckoutVisitor(ctx, v.ID, first.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := q.GetVisitor(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VisitorCheckedOut, got.Status)
	require.True(t, got.CheckOut.Valid)
	assert.True(t, got.CheckOut.Time.Equal(first), "second checkout must keep the first timestamp")

	n, err := q.CountCheckedInVisitors(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListVisitorsCheckedInBefore(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now().UTC()
	for i, hoursAgo := range []int{20, 2} {
		_, err := q.CreateVisitor(ctx, CreateVisitorParams{
			Name: "v", Contact: "c", Purpose: "p", IDType: "other", IDNumber: "1",
			Badge: []string{"b-old", "b-new"}[i], CheckIn: now.Add(-time.Duration(hoursAgo) * time.Hour),
			RegisteredBy: "admin",
		})
		require.NoError(t, err)
	}

	stale, err := q.ListVisitorsCheckedInBefore(ctx, now.Add(-12*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "b-old", stale[0].Badge)
}

func TestSuspects(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	s, err := q.CreateSuspect(ctx, CreateSuspectParams{
		Name: "Eve", Description: "Tailgating at gate B", ThreatLevel: model.LevelHigh,
		AddedBy: "admin", AddedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.SuspectActive, s.Status)
	assert.False(t, s.LastSeen.Valid)

	n, err := q.CountActiveSuspects(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err := q.ListActiveSuspects(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestResolveAlert(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	a, err := q.CreateAlert(ctx, CreateAlertParams{
		AlertType: "intrusion", Description: "Door forced", Severity: model.LevelCritical,
		Location: sql.NullString{String: "Dock 3", Valid: true}, CreatedBy: "alice",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.False(t, a.Resolved)

	changed, err := q.ResolveAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = q.ResolveAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = q.ResolveAlert(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := q.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Resolved)
}

func TestListRecentAlerts_Limit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i := range 7 {
		_, err := q.CreateAlert(ctx, CreateAlertParams{
			AlertType: "patrol", Description: "check", Severity: model.LevelLow,
			CreatedBy: "alice", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	recent, err := q.ListRecentAlerts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.True(t, recent[0].CreatedAt.After(recent[4].CreatedAt))

	n, err := q.CountUnresolvedAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestEvents_FilterAndRetention(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now().UTC()
	_, err := q.CreateEvent(ctx, CreateEventParams{Level: model.EventLevelWarning, Category: model.EventCategoryAuth, Message: "failed login", Metadata: "{}", CreatedAt: now})
	require.NoError(t, err)
	_, err = q.CreateEvent(ctx, CreateEventParams{Level: model.EventLevelInfo, Category: model.EventCategoryVisitor, Message: "old", Metadata: "{}", CreatedAt: now.Add(-100 * 24 * time.Hour)})
	require.NoError(t, err)

	authEvents, err := q.ListEvents(ctx, ListEventsParams{Category: model.EventCategoryAuth, Limit: 10})
	require.NoError(t, err)
	require.Len(t, authEvents, 1)
	assert.Equal(t, "failed login", authEvents[0].Message)

	total, err := q.CountEvents(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	removed, err := q.DeleteOldEvents(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	created, err := Seed(ctx, db, "")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = Seed(ctx, db, "")
	require.NoError(t, err)
	assert.False(t, created, "second seed must be a no-op")

	admin, err := New(db).GetUserByID(ctx, model.BootstrapAdminID)
	require.NoError(t, err)
	assert.Equal(t, DefaultAdminUsername, admin.Username)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	ok, err := auth.CheckPassword(DefaultAdminPassword, admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSeed_CustomPassword(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, "s3cure-bootstrap")
	require.NoError(t, err)

	admin, err := New(db).GetUserByUsername(ctx, DefaultAdminUsername)
	require.NoError(t, err)

	ok, err := auth.CheckPassword("s3cure-bootstrap", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}
