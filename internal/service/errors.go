// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"slices"
	"strings"
)

// Domain errors. Handlers map each to a flash message and a redirect.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrProtectedAccount   = errors.New("the main admin account cannot be deleted")
	ErrSelfDeletion       = errors.New("you cannot delete your own account")
	ErrNotFound           = errors.New("record not found")
)

// ValidationError lists every invalid field of a creation request, keyed by
// form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// validator accumulates field errors for a single request.
type validator struct {
	errs map[string]string
}

func newValidator() *validator {
	return &validator{errs: make(map[string]string)}
}

// required records an error when value is blank.
func (v *validator) required(field, label, value string) {
	if strings.TrimSpace(value) == "" {
		v.errs[field] = label + " is required"
	}
}

// oneOf records an error when a non-blank value fails valid. allowed is
// listed in the message.
func (v *validator) oneOf(field, label, value string, valid func(string) bool, allowed []string) {
	if _, failed := v.errs[field]; failed {
		return
	}
	if !valid(value) {
		v.errs[field] = label + " must be one of " + strings.Join(allowed, ", ")
	}
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.errs}
}
