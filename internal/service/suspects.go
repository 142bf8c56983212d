// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/guardpost/internal/markup"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/store"
	"github.com/olegiv/guardpost/internal/util"
)

// SuspectInput is the watchlist entry form. LastSeen is optional.
type SuspectInput struct {
	Name        string
	Description string
	LastSeen    string
	ThreatLevel string
}

// SuspectService manages the watchlist.
type SuspectService struct {
	queries *store.Queries
}

// NewSuspectService creates a new SuspectService.
func NewSuspectService(db *sql.DB) *SuspectService {
	return &SuspectService{queries: store.New(db)}
}

// AddSuspect records a new active watchlist entry on behalf of actor.
func (s *SuspectService) AddSuspect(ctx context.Context, actor string, in SuspectInput) (store.Suspect, error) {
	name := util.CollapseSpace(in.Name)
	description := markup.Clean(in.Description)
	level := strings.TrimSpace(in.ThreatLevel)

	v := newValidator()
	v.required("name", "Name", name)
	v.required("description", "Description", description)
	v.required("threat_level", "Threat level", level)
	v.oneOf("threat_level", "Threat level", level, model.IsValidLevel, model.ValidLevels)
	if err := v.err(); err != nil {
		return store.Suspect{}, err
	}

	suspect, err := s.queries.CreateSuspect(ctx, store.CreateSuspectParams{
		Name:        name,
		Description: description,
		LastSeen:    util.NullStringFromValue(in.LastSeen),
		ThreatLevel: level,
		AddedBy:     actor,
		AddedAt:     time.Now().UTC(),
	})
	if err != nil {
		return store.Suspect{}, fmt.Errorf("adding suspect: %w", err)
	}
	return suspect, nil
}

// ListSuspects returns the whole watchlist, newest first.
func (s *SuspectService) ListSuspects(ctx context.Context) ([]store.Suspect, error) {
	suspects, err := s.queries.ListSuspects(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing suspects: %w", err)
	}
	return suspects, nil
}

// CountActive returns the number of active watchlist entries.
func (s *SuspectService) CountActive(ctx context.Context) (int64, error) {
	n, err := s.queries.CountActiveSuspects(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting active suspects: %w", err)
	}
	return n, nil
}
