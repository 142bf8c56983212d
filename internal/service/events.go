// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the application's business rules: the credential
// store, the visitor/suspect/alert lifecycle, dashboard reporting and the
// security event log. Handlers call services; services call the store.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/store"
	"github.com/olegiv/guardpost/internal/util"
)

// CountryLookup resolves a client address to an ISO country code.
type CountryLookup interface {
	LookupCountry(ip string) string
}

// EventService writes and reads the security event log.
type EventService struct {
	queries *store.Queries
	geo     CountryLookup
}

// NewEventService creates a new EventService. geo may be nil.
func NewEventService(db *sql.DB, geo CountryLookup) *EventService {
	return &EventService{
		queries: store.New(db),
		geo:     geo,
	}
}

// LogEvent appends an entry to the event log.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    util.NullInt64FromPtr(userID),
		IpAddress: ipAddress,
		Metadata:  metadataJSON,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// LogAuthEvent records a login-related event annotated with the client's
// browser, operating system and country.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID *int64, ipAddress, userAgent string, metadata map[string]any) error {
	if metadata == nil {
		metadata = make(map[string]any)
	}

	if userAgent != "" {
		ua := useragent.Parse(userAgent)
		metadata["browser"] = valueOr(ua.Name, "Unknown")
		metadata["os"] = valueOr(ua.OS, "Unknown")
		metadata["device"] = deviceType(ua)
	}

	if s.geo != nil && ipAddress != "" {
		if country := s.geo.LookupCountry(ipAddress); country != "" {
			metadata["country"] = country
		}
	}

	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, metadata)
}

// LogUserEvent records an account management event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, ipAddress, metadata)
}

// LogVisitorEvent records a visitor lifecycle event.
func (s *EventService) LogVisitorEvent(ctx context.Context, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryVisitor, message, userID, ipAddress, metadata)
}

// LogSuspectEvent records a watchlist event.
func (s *EventService) LogSuspectEvent(ctx context.Context, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategorySuspect, message, userID, ipAddress, metadata)
}

// LogAlertEvent records an alert lifecycle event.
func (s *EventService) LogAlertEvent(ctx context.Context, message string, userID *int64, ipAddress string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, model.EventCategoryAlert, message, userID, ipAddress, metadata)
}

// EventFilter narrows an event listing. Zero values match everything.
type EventFilter struct {
	Level    string
	Category string
}

// EventPage is one page of the event log.
type EventPage struct {
	Events     []store.Event
	Total      int64
	Page       int
	TotalPages int
}

// EventsPerPage is the page size of the event log view.
const EventsPerPage = 50

// ListEvents returns page (1-based) of events matching filter, newest first.
func (s *EventService) ListEvents(ctx context.Context, filter EventFilter, page int) (EventPage, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.queries.CountEvents(ctx, filter.Level, filter.Category)
	if err != nil {
		return EventPage{}, fmt.Errorf("counting events: %w", err)
	}

	events, err := s.queries.ListEvents(ctx, store.ListEventsParams{
		Level:    filter.Level,
		Category: filter.Category,
		Limit:    EventsPerPage,
		Offset:   int64((page - 1) * EventsPerPage),
	})
	if err != nil {
		return EventPage{}, fmt.Errorf("listing events: %w", err)
	}

	totalPages := int((total + EventsPerPage - 1) / EventsPerPage)
	if totalPages == 0 {
		totalPages = 1
	}

	return EventPage{Events: events, Total: total, Page: page, TotalPages: totalPages}, nil
}

// DeleteOldEvents removes events older than olderThan and returns the count.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.queries.DeleteOldEvents(ctx, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("deleting old events: %w", err)
	}
	if n > 0 {
		slog.Info("purged old events", "count", n)
	}
	return n, nil
}

func deviceType(ua useragent.UserAgent) string {
	switch {
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	case ua.Bot:
		return "bot"
	default:
		return "desktop"
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
