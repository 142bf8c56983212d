// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors WARN and ERROR
// records into the database-backed event log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/store"
)

// Attribute keys lifted out of the record into event columns.
const (
	AttrCategory = "category"
	AttrUserID   = "user_id"
	AttrIP       = "ip"
)

// EventLogHandler is a slog.Handler that wraps another handler and also
// writes records at or above its level to the event log. Attributes inside a
// group land in the metadata under dotted keys such as "req.method"; only
// top-level category, user_id and ip fill event columns.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []groupedAttr
	group   string
}

// groupedAttr is an attribute added by WithAttrs with the group open at the
// time.
type groupedAttr struct {
	group string
	attr  slog.Attr
}

// NewEventLogHandler wraps inner and forwards WARN and above to the event log.
func NewEventLogHandler(inner slog.Handler, db *sql.DB) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel is NewEventLogHandler with a custom threshold.
func NewEventLogHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= h.level {
		h.writeToEventLog(r)
	}

	return nil
}

// WithAttrs implements slog.Handler. The attributes are also kept so a
// logger built with slog.With("category", ...) files its events correctly.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]groupedAttr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, groupedAttr{group: h.group, attr: a})
	}
	return &EventLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
		group:   h.group,
	}
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &EventLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
		group:   joinKey(h.group, name),
	}
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	if key == "" {
		return group
	}
	return group + "." + key
}

// eventFields is a record flattened into event log columns.
type eventFields struct {
	category string
	userID   sql.NullInt64
	ip       string
	metadata map[string]any
}

func (h *EventLogHandler) collect(r slog.Record) eventFields {
	f := eventFields{metadata: make(map[string]any)}

	var visit func(group string, a slog.Attr)
	visit = func(group string, a slog.Attr) {
		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			for _, ga := range v.Group() {
				visit(joinKey(group, a.Key), ga)
			}
			return
		}
		if a.Key == "" {
			return
		}
		if group != "" {
			f.metadata[joinKey(group, a.Key)] = attrValue(v)
			return
		}
		switch a.Key {
		case AttrCategory:
			f.category = v.String()
		case AttrUserID:
			switch v.Kind() {
			case slog.KindInt64:
				f.userID = sql.NullInt64{Int64: v.Int64(), Valid: v.Int64() > 0}
			case slog.KindUint64:
				f.userID = sql.NullInt64{Int64: int64(v.Uint64()), Valid: v.Uint64() > 0}
			default:
				f.metadata[a.Key] = v.String()
			}
		case AttrIP:
			f.ip = v.String()
		default:
			f.metadata[a.Key] = attrValue(v)
		}
	}

	for _, ga := range h.attrs {
		visit(ga.group, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		visit(h.group, a)
		return true
	})

	if f.category == "" {
		f.category = inferCategory(r.Message)
	}
	return f
}

// attrValue keeps numbers and booleans as JSON scalars and renders
// everything else as text.
func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	default:
		return v.String()
	}
}

func (h *EventLogHandler) writeToEventLog(r slog.Record) {
	f := h.collect(r)

	metadata := "{}"
	if len(f.metadata) > 0 {
		if b, err := json.Marshal(f.metadata); err == nil {
			metadata = string(b)
		}
	}

	createdAt := r.Time
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	// Background context: the event must land even if the request that
	// produced it was cancelled. Errors are dropped; logging them here
	// would recurse into this handler.
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Category:  f.category,
		Message:   r.Message,
		UserID:    f.userID,
		IpAddress: f.ip,
		Metadata:  metadata,
		CreatedAt: createdAt.UTC(),
	})
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category from the message when none was given.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case containsAny(msg, "login", "logout", "auth", "password", "session", "access denied"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "visitor"):
		return model.EventCategoryVisitor
	case containsAny(msg, "suspect", "watchlist"):
		return model.EventCategorySuspect
	case strings.Contains(msg, "alert"):
		return model.EventCategoryAlert
	case strings.Contains(msg, "user"):
		return model.EventCategoryUser
	default:
		return model.EventCategorySystem
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
