// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const suspectColumns = `id, name, description, last_seen, threat_level, added_by, added_at, status`

func scanSuspect(row scanner) (Suspect, error) {
	var s Suspect
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.LastSeen, &s.ThreatLevel,
		&s.AddedBy, &s.AddedAt, &s.Status)
	return s, err
}

// CreateSuspectParams holds the fields of a new watchlist entry.
type CreateSuspectParams struct {
	Name        string
	Description string
	LastSeen    sql.NullString
	ThreatLevel string
	AddedBy     string
	AddedAt     time.Time
}

const createSuspect = `INSERT INTO suspects (name, description, last_seen, threat_level, added_by, added_at, status)
VALUES (?, ?, ?, ?, ?, ?, 'active')
RETURNING ` + suspectColumns

func (q *Queries) CreateSuspect(ctx context.Context, arg CreateSuspectParams) (Suspect, error) {
	row := q.db.QueryRowContext(ctx, createSuspect,
		arg.Name, arg.Description, arg.LastSeen, arg.ThreatLevel, arg.AddedBy, arg.AddedAt)
	return scanSuspect(row)
}

const listSuspects = `SELECT ` + suspectColumns + ` FROM suspects ORDER BY added_at DESC, id DESC`

func (q *Queries) ListSuspects(ctx context.Context) ([]Suspect, error) {
	return q.querySuspects(ctx, listSuspects)
}

const listActiveSuspects = `SELECT ` + suspectColumns + ` FROM suspects
WHERE status = 'active' ORDER BY added_at DESC, id DESC`

func (q *Queries) ListActiveSuspects(ctx context.Context) ([]Suspect, error) {
	return q.querySuspects(ctx, listActiveSuspects)
}

const countActiveSuspects = `SELECT COUNT(*) FROM suspects WHERE status = 'active'`

func (q *Queries) CountActiveSuspects(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countActiveSuspects).Scan(&n)
	return n, err
}

func (q *Queries) querySuspects(ctx context.Context, query string) ([]Suspect, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Suspect
	for rows.Next() {
		s, err := scanSuspect(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
