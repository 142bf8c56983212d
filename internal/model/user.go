// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants shared by the store, service and
// handler layers: user roles, entity lifecycle states and event categories.
package model

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRoles contains all valid user roles.
var ValidRoles = []string{RoleAdmin, RoleUser}

// BootstrapAdminID is the ID of the reserved administrator account created at
// first initialization. It can never be deleted.
const BootstrapAdminID int64 = 1

// IsValidRole reports whether role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdminRole returns true if the role grants admin access.
func IsAdminRole(role string) bool {
	return role == RoleAdmin
}
