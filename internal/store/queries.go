// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries groups all parameterized statements used by the application.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// User is a row of the users table.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Visitor is a row of the visitors table.
type Visitor struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Contact      string       `json:"contact"`
	Purpose      string       `json:"purpose"`
	IDType       string       `json:"id_type"`
	IDNumber     string       `json:"id_number"`
	Badge        string       `json:"badge"`
	CheckIn      time.Time    `json:"check_in"`
	CheckOut     sql.NullTime `json:"check_out"`
	RegisteredBy string       `json:"registered_by"`
	Status       string       `json:"status"`
}

// Suspect is a row of the suspects table.
type Suspect struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	LastSeen    sql.NullString `json:"last_seen"`
	ThreatLevel string         `json:"threat_level"`
	AddedBy     string         `json:"added_by"`
	AddedAt     time.Time      `json:"added_at"`
	Status      string         `json:"status"`
}

// Alert is a row of the alerts table.
type Alert struct {
	ID          int64          `json:"id"`
	AlertType   string         `json:"alert_type"`
	Description string         `json:"description"`
	Severity    string         `json:"severity"`
	Location    sql.NullString `json:"location"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	Resolved    bool           `json:"resolved"`
}

// Event is a row of the events table.
type Event struct {
	ID        int64         `json:"id"`
	Level     string        `json:"level"`
	Category  string        `json:"category"`
	Message   string        `json:"message"`
	UserID    sql.NullInt64 `json:"user_id"`
	IpAddress string        `json:"ip_address"`
	Metadata  string        `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
