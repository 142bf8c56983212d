// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/olegiv/guardpost/internal/config"
	"github.com/olegiv/guardpost/internal/geoip"
	"github.com/olegiv/guardpost/internal/scheduler"
	"github.com/olegiv/guardpost/internal/service"
)

// newScheduler registers the background jobs enabled by cfg.
func newScheduler(cfg *config.Config, db *sql.DB, events *service.EventService, geo *geoip.Lookup, logger *slog.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.New(logger)

	if retention := cfg.EventRetention(); retention > 0 {
		if err := s.Add(scheduler.JobEventRetention, "Delete old event log entries", "@daily",
			scheduler.EventRetentionJob(events, retention, logger)); err != nil {
			return nil, fmt.Errorf("registering job: %w", err)
		}
	}

	if threshold := cfg.LongStayThreshold(); threshold > 0 {
		if err := s.Add(scheduler.JobLongStay, "Report visitors checked in too long", "@hourly",
			scheduler.LongStayJob(service.NewVisitorService(db), threshold, logger)); err != nil {
			return nil, fmt.Errorf("registering job: %w", err)
		}
	}

	if cfg.GeoIPEnabled() {
		if err := s.Add(scheduler.JobGeoIPReload, "Reload the GeoIP database if replaced", "@daily",
			scheduler.GeoIPReloadJob(geo, logger)); err != nil {
			return nil, fmt.Errorf("registering job: %w", err)
		}
	}

	return s, nil
}
