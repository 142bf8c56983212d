// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/guardpost/internal/model"
	"github.com/olegiv/guardpost/internal/store"
)

// Job names.
const (
	JobEventRetention = "event_retention"
	JobLongStay       = "long_stay_report"
	JobGeoIPReload    = "geoip_reload"
)

// EventPurger deletes old event log entries.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// LongStayFinder lists visitors checked in for longer than a threshold.
type LongStayFinder interface {
	LongStays(ctx context.Context, threshold time.Duration) ([]store.Visitor, error)
}

// Reloader reopens an on-disk database when it has changed.
type Reloader interface {
	Reload() error
}

// EventRetentionJob deletes events older than retention.
func EventRetentionJob(events EventPurger, retention time.Duration, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := events.DeleteOldEvents(ctx, retention)
		if err != nil {
			return fmt.Errorf("purging events: %w", err)
		}
		logger.Debug("event retention pass", "deleted", n, "retention", retention)
		return nil
	}
}

// LongStayJob warns about every visitor checked in for longer than
// threshold. Visitor state is left untouched.
func LongStayJob(visitors LongStayFinder, threshold time.Duration, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		stays, err := visitors.LongStays(ctx, threshold)
		if err != nil {
			return fmt.Errorf("listing long stays: %w", err)
		}
		now := time.Now().UTC()
		for _, v := range stays {
			logger.WarnContext(ctx, "visitor still checked in past threshold",
				"category", model.EventCategoryVisitor,
				"visitor_id", v.ID,
				"visitor_name", v.Name,
				"badge", v.Badge,
				"checked_in_for", now.Sub(v.CheckIn).Truncate(time.Minute).String(),
			)
		}
		return nil
	}
}

// GeoIPReloadJob picks up a replaced GeoIP database file.
func GeoIPReloadJob(geo Reloader, logger *slog.Logger) JobFunc {
	return func(context.Context) error {
		if err := geo.Reload(); err != nil {
			return fmt.Errorf("reloading geoip database: %w", err)
		}
		logger.Debug("geoip database checked")
		return nil
	}
}
