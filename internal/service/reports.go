// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/olegiv/guardpost/internal/store"
	"github.com/olegiv/guardpost/internal/util"
)

// Summary holds the dashboard aggregates. Every field is read fresh from
// the store on each call.
type Summary struct {
	CheckedInVisitors int64
	ActiveSuspects    int64
	UnresolvedAlerts  int64
	TotalUsers        int64
	RecentAlerts      []store.Alert
}

// WatchlistMatch pairs a visitor on site with an active suspect of the same
// normalized name.
type WatchlistMatch struct {
	Visitor store.Visitor
	Suspect store.Suspect
}

// ReportService answers read-only dashboard queries.
type ReportService struct {
	queries *store.Queries
}

// NewReportService creates a new ReportService.
func NewReportService(db *sql.DB) *ReportService {
	return &ReportService{queries: store.New(db)}
}

// Summary collects the counters and recent alerts shown on both dashboards.
func (s *ReportService) Summary(ctx context.Context) (Summary, error) {
	var (
		sum Summary
		err error
	)

	if sum.CheckedInVisitors, err = s.queries.CountCheckedInVisitors(ctx); err != nil {
		return Summary{}, fmt.Errorf("counting checked-in visitors: %w", err)
	}
	if sum.ActiveSuspects, err = s.queries.CountActiveSuspects(ctx); err != nil {
		return Summary{}, fmt.Errorf("counting active suspects: %w", err)
	}
	if sum.UnresolvedAlerts, err = s.queries.CountUnresolvedAlerts(ctx); err != nil {
		return Summary{}, fmt.Errorf("counting unresolved alerts: %w", err)
	}
	if sum.TotalUsers, err = s.queries.CountUsers(ctx); err != nil {
		return Summary{}, fmt.Errorf("counting users: %w", err)
	}
	if sum.RecentAlerts, err = s.queries.ListRecentAlerts(ctx, RecentAlertsLimit); err != nil {
		return Summary{}, fmt.Errorf("listing recent alerts: %w", err)
	}

	return sum, nil
}

// WatchlistMatches returns checked-in visitors whose normalized name equals
// an active suspect's normalized name.
func (s *ReportService) WatchlistMatches(ctx context.Context) ([]WatchlistMatch, error) {
	suspects, err := s.queries.ListActiveSuspects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active suspects: %w", err)
	}
	if len(suspects) == 0 {
		return nil, nil
	}

	byName := make(map[string][]store.Suspect, len(suspects))
	for _, sp := range suspects {
		key := util.NormalizeName(sp.Name)
		if key == "" {
			continue
		}
		byName[key] = append(byName[key], sp)
	}

	visitors, err := s.queries.ListCheckedInVisitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing checked-in visitors: %w", err)
	}

	var matches []WatchlistMatch
	for _, v := range visitors {
		for _, sp := range byName[util.NormalizeName(v.Name)] {
			matches = append(matches, WatchlistMatch{Visitor: v, Suspect: sp})
		}
	}
	return matches, nil
}
