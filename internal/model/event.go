// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryUser    = "user"
	EventCategoryVisitor = "visitor"
	EventCategorySuspect = "suspect"
	EventCategoryAlert   = "alert"
	EventCategorySystem  = "system"
)

// EventCategories lists the categories offered by the event log filter.
var EventCategories = []string{
	EventCategoryAuth,
	EventCategoryUser,
	EventCategoryVisitor,
	EventCategorySuspect,
	EventCategoryAlert,
	EventCategorySystem,
}

// EventLevels lists event levels in ascending severity.
var EventLevels = []string{EventLevelInfo, EventLevelWarning, EventLevelError}
