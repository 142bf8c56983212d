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

	"github.com/olegiv/guardpost/internal/markup"
	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/store"
	"github.com/olegiv/guardpost/internal/util"
)

// RecentAlertsLimit is the number of alerts shown on dashboards.
const RecentAlertsLimit = 5

// AlertInput is the alert creation form. Location is optional.
type AlertInput struct {
	AlertType   string
	Description string
	Severity    string
	Location    string
}

// AlertService manages security alerts.
type AlertService struct {
	queries *store.Queries
}

// NewAlertService creates a new AlertService.
func NewAlertService(db *sql.DB) *AlertService {
	return &AlertService{queries: store.New(db)}
}

// CreateAlert raises a new unresolved alert on behalf of actor.
func (s *AlertService) CreateAlert(ctx context.Context, actor string, in AlertInput) (store.Alert, error) {
	alertType := util.CollapseSpace(in.AlertType)
	description := markup.Clean(in.Description)
	severity := strings.TrimSpace(in.Severity)

	v := newValidator()
	v.required("alert_type", "Alert type", alertType)
	v.required("description", "Description", description)
	v.required("severity", "Severity", severity)
	v.oneOf("severity", "Severity", severity, model.IsValidLevel, model.ValidLevels)
	if err := v.err(); err != nil {
		return store.Alert{}, err
	}

	alert, err := s.queries.CreateAlert(ctx, store.CreateAlertParams{
		AlertType:   alertType,
		Description: description,
		Severity:    severity,
		Location:    util.NullStringFromValue(in.Location),
		CreatedBy:   actor,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return store.Alert{}, fmt.Errorf("creating alert: %w", err)
	}
	return alert, nil
}

// Resolve marks alert id resolved. It reports whether the state changed;
// resolving an already resolved alert is a no-op.
func (s *AlertService) Resolve(ctx context.Context, id int64) (bool, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}

	changed, err := s.queries.ResolveAlert(ctx, id)
	if err != nil {
		return false, fmt.Errorf("resolving alert %d: %w", id, err)
	}
	return changed, nil
}

// Get returns alert id.
func (s *AlertService) Get(ctx context.Context, id int64) (store.Alert, error) {
	alert, err := s.queries.GetAlert(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Alert{}, ErrNotFound
	}
	if err != nil {
		return store.Alert{}, fmt.Errorf("getting alert %d: %w", id, err)
	}
	return alert, nil
}

// ListAlerts returns every alert, newest first.
func (s *AlertService) ListAlerts(ctx context.Context) ([]store.Alert, error) {
	alerts, err := s.queries.ListAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// RecentAlerts returns the limit newest alerts.
func (s *AlertService) RecentAlerts(ctx context.Context, limit int) ([]store.Alert, error) {
	alerts, err := s.queries.ListRecentAlerts(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing recent alerts: %w", err)
	}
	return alerts, nil
}

// CountUnresolved returns the number of open alerts.
func (s *AlertService) CountUnresolved(ctx context.Context) (int64, error) {
	n, err := s.queries.CountUnresolvedAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting unresolved alerts: %w", err)
	}
	return n, nil
}
