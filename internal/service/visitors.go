// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/guardpost/internal/store"
	"github.com/olegiv/guardpost/internal/util"
)

// VisitorInput is the front-desk registration form.
type VisitorInput struct {
	Name     string
	Contact  string
	Purpose  string
	IDType   string
	IDNumber string
}

// VisitorService manages the visitor check-in/check-out lifecycle.
type VisitorService struct {
	queries *store.Queries
}

// NewVisitorService creates a new VisitorService.
func NewVisitorService(db *sql.DB) *VisitorService {
	return &VisitorService{queries: store.New(db)}
}

// RegisterVisitor checks a visitor in on behalf of actor and issues a badge.
func (s *VisitorService) RegisterVisitor(ctx context.Context, actor string, in VisitorInput) (store.Visitor, error) {
	in = VisitorInput{
		Name:     util.CollapseSpace(in.Name),
		Contact:  strings.TrimSpace(in.Contact),
		Purpose:  strings.TrimSpace(in.Purpose),
		IDType:   strings.TrimSpace(in.IDType),
		IDNumber: strings.TrimSpace(in.IDNumber),
	}

	v := newValidator()
	v.required("name", "Name", in.Name)
	v.required("contact", "Contact", in.Contact)
	v.required("purpose", "Purpose", in.Purpose)
	v.required("id_type", "ID type", in.IDType)
	v.required("id_number", "ID number", in.IDNumber)
	if err := v.err(); err != nil {
		return store.Visitor{}, err
	}

	visitor, err := s.queries.CreateVisitor(ctx, store.CreateVisitorParams{
		Name:         in.Name,
		Contact:      in.Contact,
		Purpose:      in.Purpose,
		IDType:       in.IDType,
		IDNumber:     in.IDNumber,
		Badge:        newBadge(),
		CheckIn:      time.Now().UTC(),
		RegisteredBy: actor,
	})
	if err != nil {
		return store.Visitor{}, fmt.Errorf("registering visitor: %w", err)
	}
	return visitor, nil
}

// Checkout moves visitor id to checked_out. It reports whether the state
// changed; checking out an already departed visitor is a no-op that keeps the
// original check-out time.
func (s *VisitorService) Checkout(ctx context.Context, id int64) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}

	changed, err := s.queries.CheckoutVisitor(ctx, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("checking out visitor %d: %w", id, err)
	}
	return changed, nil
}

// Get returns visitor id.
func (s *VisitorService) Get(ctx context.Context, id int64) (store.Visitor, error) {
	visitor, err := s.queries.GetVisitor(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Visitor{}, ErrNotFound
	}
	if err != nil {
		return store.Visitor{}, fmt.Errorf("getting visitor %d: %w", id, err)
	}
	return visitor, nil
}

// ListVisitors returns every visitor, most recent check-in first.
func (s *VisitorService) ListVisitors(ctx context.Context) ([]store.Visitor, error) {
	visitors, err := s.queries.ListVisitors(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing visitors: %w", err)
	}
	return visitors, nil
}

// CountCheckedIn returns the number of visitors currently on site.
func (s *VisitorService) CountCheckedIn(ctx context.Context) (int64, error) {
	n, err := s.queries.CountCheckedInVisitors(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting checked-in visitors: %w", err)
	}
	return n, nil
}

// LongStays returns visitors still checked in after more than threshold.
func (s *VisitorService) LongStays(ctx context.Context, threshold time.Duration) ([]store.Visitor, error) {
	visitors, err := s.queries.ListVisitorsCheckedInBefore(ctx, time.Now().UTC().Add(-threshold))
	if err != nil {
		return nil, fmt.Errorf("listing long-stay visitors: %w", err)
	}
	return visitors, nil
}

// newBadge returns a printable pass code such as "GP-3F9A-C21B-07DE".
func newBadge() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "GP-" + hex[0:4] + "-" + hex[4:8] + "-" + hex[8:12]
}
