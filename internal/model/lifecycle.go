// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Visitor states. A visitor moves from checked_in to checked_out exactly once.
const (
	VisitorCheckedIn  = "checked_in"
	VisitorCheckedOut = "checked_out"
)

// Suspect states. Only active is reachable; inactive is kept for schema
// compatibility with existing databases.
const (
	SuspectActive   = "active"
	SuspectInactive = "inactive"
)

// Severity and threat levels share the same scale.
const (
	LevelLow      = "low"
	LevelMedium   = "medium"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// ValidLevels lists the accepted alert severities and suspect threat levels,
// from least to most serious.
var ValidLevels = []string{LevelLow, LevelMedium, LevelHigh, LevelCritical}

// IsValidLevel reports whether level is one of ValidLevels.
func IsValidLevel(level string) bool {
	for _, l := range ValidLevels {
		if l == level {
			return true
		}
	}
	return false
}

// IDTypes lists the identity documents offered on the visitor registration form.
var IDTypes = []string{"national_id", "passport", "driving_license", "employee_card", "other"}
