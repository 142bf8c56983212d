// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/render"
	"github.com/olegiv/guardpost/internal/scheduler"
	"github.com/olegiv/guardpost/internal/service"
	"github.com/olegiv/guardpost/internal/store"
)

// JobLister reports the registered background jobs.
type JobLister interface {
	Jobs() []scheduler.JobInfo
}

// EventsHandler handles event log viewing routes.
type EventsHandler struct {
	events   *service.EventService
	users    *service.UserService
	jobs     JobLister
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler. jobs may be nil.
func NewEventsHandler(events *service.EventService, users *service.UserService, jobs JobLister, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{
		events:   events,
		users:    users,
		jobs:     jobs,
		renderer: renderer,
	}
}

// EventRow is an event with its metadata made readable and its user resolved.
type EventRow struct {
	store.Event
	Details     string // Formatted metadata as readable text
	DetailsLong bool   // True if details exceed display threshold
	UserName    string
}

// detailsLengthThreshold is the max chars before details are collapsible
const detailsLengthThreshold = 80

// EventsPage is one page of rows with its position in the full listing.
type EventsPage struct {
	Events     []EventRow
	Total      int64
	Page       int
	TotalPages int
}

// EventsListData holds data for the events list template.
type EventsListData struct {
	Page       EventsPage
	Filter     service.EventFilter
	Levels     []string
	Categories []string
	Jobs       []scheduler.JobInfo
}

// formatMetadata converts JSON metadata to readable text format.
// Example: {"badge":"V-1A2B","visitor_id":3} -> "badge: V-1A2B, visitor_id: 3"
func formatMetadata(metadata string) string {
	if metadata == "" || metadata == "{}" {
		return ""
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(metadata), &data); err != nil {
		return metadata // Return as-is if not valid JSON
	}

	if len(data) == 0 {
		return ""
	}

	// Sort keys for consistent output order
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		var strValue string
		switch v := data[key].(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			strValue = strconv.FormatBool(v)
		default:
			// For nested objects, marshal back to JSON
			if b, err := json.Marshal(v); err == nil {
				strValue = string(b)
			}
		}
		parts = append(parts, key+": "+strValue)
	}

	return strings.Join(parts, ", ")
}

// parsePageParam returns the 1-based ?page= value, defaulting to 1.
func parsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// eventFilter reads the level and category filters. Unknown values are
// dropped rather than matching nothing.
func eventFilter(r *http.Request) service.EventFilter {
	q := r.URL.Query()
	filter := service.EventFilter{Level: q.Get("level"), Category: q.Get("category")}
	if !slices.Contains(model.EventLevels, filter.Level) {
		filter.Level = ""
	}
	if !slices.Contains(model.EventCategories, filter.Category) {
		filter.Category = ""
	}
	return filter
}

// List handles GET /admin/events - displays a paginated list of events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := eventFilter(r)

	page, err := h.events.ListEvents(r.Context(), filter, parsePageParam(r))
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to list events", "error", err)
		return
	}

	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		loadFailed(w, r, h.renderer, "failed to list users", "error", err)
		return
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	rows := make([]EventRow, len(page.Events))
	for i, e := range page.Events {
		details := formatMetadata(e.Metadata)
		rows[i] = EventRow{
			Event:       e,
			Details:     details,
			DetailsLong: len(details) > detailsLengthThreshold,
		}
		if e.UserID.Valid {
			rows[i].UserName = names[e.UserID.Int64]
		}
	}

	data := EventsListData{
		Page: EventsPage{
			Events:     rows,
			Total:      page.Total,
			Page:       page.Page,
			TotalPages: page.TotalPages,
		},
		Filter:     filter,
		Levels:     model.EventLevels,
		Categories: model.EventCategories,
	}
	if h.jobs != nil {
		data.Jobs = h.jobs.Jobs()
	}

	renderPage(w, r, h.renderer, pageEvents, render.TemplateData{
		Title: "Event Log",
		Data:  data,
	})
}
