// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/testutil"
)

type fakeGeo map[string]string

func (f fakeGeo) LookupCountry(ip string) string { return f[ip] }

func TestLogEvent(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)

	userID := int64(7)
	err := svc.LogEvent(context.Background(), model.EventLevelInfo, model.EventCategoryVisitor,
		"Visitor registered", &userID, "192.168.1.100", map[string]any{"badge": "GP-1"})
	require.NoError(t, err)

	var level, category, message, metadata, ip string
	var savedUserID sql.NullInt64
	err = db.QueryRow("SELECT level, category, message, user_id, ip_address, metadata FROM events").
		Scan(&level, &category, &message, &savedUserID, &ip, &metadata)
	require.NoError(t, err)

	assert.Equal(t, "info", level)
	assert.Equal(t, "visitor", category)
	assert.Equal(t, "Visitor registered", message)
	assert.Equal(t, sql.NullInt64{Int64: 7, Valid: true}, savedUserID)
	assert.Equal(t, "192.168.1.100", ip)
	assert.JSONEq(t, `{"badge":"GP-1"}`, metadata)
}

func TestLogEvent_NilUserAndMetadata(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)

	require.NoError(t, svc.LogEvent(context.Background(), model.EventLevelWarning, model.EventCategorySystem, "No user", nil, "", nil))

	var savedUserID sql.NullInt64
	var metadata string
	require.NoError(t, db.QueryRow("SELECT user_id, metadata FROM events").Scan(&savedUserID, &metadata))
	assert.False(t, savedUserID.Valid)
	assert.Equal(t, "{}", metadata)
}

func TestLogAuthEvent_Enrichment(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, fakeGeo{"81.2.69.142": "GB"})

	const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	err := svc.LogAuthEvent(context.Background(), model.EventLevelInfo, "User logged in", nil,
		"81.2.69.142", chromeUA, map[string]any{"username": "alice"})
	require.NoError(t, err)

	var category, raw string
	require.NoError(t, db.QueryRow("SELECT category, metadata FROM events").Scan(&category, &raw))
	assert.Equal(t, model.EventCategoryAuth, category)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	assert.Equal(t, "alice", meta["username"])
	assert.Equal(t, "Chrome", meta["browser"])
	assert.Equal(t, "Windows", meta["os"])
	assert.Equal(t, "desktop", meta["device"])
	assert.Equal(t, "GB", meta["country"])
}

func TestLogCategoryEvents(t *testing.T) {
	tests := []struct {
		name     string
		logFn    func(*EventService, context.Context) error
		expected string
	}{
		{"user", func(s *EventService, ctx context.Context) error {
			return s.LogUserEvent(ctx, model.EventLevelInfo, "User created", nil, "", nil)
		}, model.EventCategoryUser},
		{"visitor", func(s *EventService, ctx context.Context) error {
			return s.LogVisitorEvent(ctx, "Visitor checked out", nil, "", nil)
		}, model.EventCategoryVisitor},
		{"suspect", func(s *EventService, ctx context.Context) error {
			return s.LogSuspectEvent(ctx, "Suspect added", nil, "", nil)
		}, model.EventCategorySuspect},
		{"alert", func(s *EventService, ctx context.Context) error {
			return s.LogAlertEvent(ctx, "Alert resolved", nil, "", nil)
		}, model.EventCategoryAlert},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.TestDB(t)
			require.NoError(t, tt.logFn(NewEventService(db, nil), context.Background()))

			var got string
			require.NoError(t, db.QueryRow("SELECT category FROM events").Scan(&got))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestListEvents_Pagination(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)
	ctx := context.Background()

	for range EventsPerPage + 5 {
		require.NoError(t, svc.LogVisitorEvent(ctx, "v", nil, "", nil))
	}
	require.NoError(t, svc.LogAuthEvent(ctx, model.EventLevelWarning, "Failed login", nil, "", "", nil))

	first, err := svc.ListEvents(ctx, EventFilter{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 2, first.TotalPages)
	assert.Equal(t, int64(EventsPerPage+6), first.Total)
	assert.Len(t, first.Events, EventsPerPage)

	second, err := svc.ListEvents(ctx, EventFilter{}, 2)
	require.NoError(t, err)
	assert.Len(t, second.Events, 6)

	warnings, err := svc.ListEvents(ctx, EventFilter{Level: model.EventLevelWarning}, 1)
	require.NoError(t, err)
	require.Len(t, warnings.Events, 1)
	assert.Equal(t, "Failed login", warnings.Events[0].Message)
	assert.Equal(t, 1, warnings.TotalPages)
}

func TestDeleteOldEvents(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewEventService(db, nil)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO events (level, category, message, metadata, created_at) VALUES ('info', 'system', 'Old event', '{}', ?)`,
		time.Now().UTC().Add(-31*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, svc.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySystem, "Recent event", nil, "", nil))

	n, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count))
	assert.Equal(t, 1, count)
}
