// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client addresses to ISO country codes using a MaxMind
// GeoLite2-Country database. Login events are annotated with the result. An
// unconfigured or missing database disables lookups without failing startup.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/olegiv/guardpost/internal/util"
)

// CountryLocal is returned for loopback and private-network clients.
const CountryLocal = "LOCAL"

// Lookup is safe for concurrent use. The zero value is a disabled lookup.
type Lookup struct {
	mu         sync.RWMutex
	db         *maxminddb.Reader
	path       string
	modTime    time.Time
	configured bool
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open creates a Lookup for the database at path. An empty path yields a
// Lookup that only classifies local addresses.
func Open(path string) (*Lookup, error) {
	g := &Lookup{path: path}
	if path == "" {
		return g, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.configured = true
	if err := g.load(); err != nil {
		return g, err
	}
	return g, nil
}

// load opens the database if it changed on disk. Caller holds the write lock.
func (g *Lookup) load() error {
	info, err := os.Stat(g.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("geoip database not found: %s", g.path)
		}
		return fmt.Errorf("stat geoip database: %w", err)
	}

	if g.db != nil && info.ModTime().Equal(g.modTime) {
		return nil
	}

	db, err := maxminddb.Open(g.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}

	if g.db != nil {
		_ = g.db.Close()
	}
	g.db = db
	g.modTime = info.ModTime()
	return nil
}

// Reload picks up a database file replaced on disk.
func (g *Lookup) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.configured {
		return nil
	}
	return g.load()
}

// LookupCountry returns the 2-letter country code for ip, CountryLocal for
// private addresses, or "" when unknown.
func (g *Lookup) LookupCountry(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if util.IsPrivateIP(parsed) {
		return CountryLocal
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.db == nil {
		return ""
	}

	var record countryRecord
	if err := g.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (g *Lookup) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Close releases the database.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}
