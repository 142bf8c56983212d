// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const alertColumns = `id, alert_type, description, severity, location, created_by, created_at, resolved`

func scanAlert(row scanner) (Alert, error) {
	var a Alert
	err := row.Scan(&a.ID, &a.AlertType, &a.Description, &a.Severity, &a.Location,
		&a.CreatedBy, &a.CreatedAt, &a.Resolved)
	return a, err
}

// CreateAlertParams holds the fields of a new alert. Alerts start unresolved.
type CreateAlertParams struct {
	AlertType   string
	Description string
	Severity    string
	Location    sql.NullString
	CreatedBy   string
	CreatedAt   time.Time
}

const createAlert = `INSERT INTO alerts (alert_type, description, severity, location, created_by, created_at, resolved)
VALUES (?, ?, ?, ?, ?, ?, 0)
RETURNING ` + alertColumns

func (q *Queries) CreateAlert(ctx context.Context, arg CreateAlertParams) (Alert, error) {
	row := q.db.QueryRowContext(ctx, createAlert,
		arg.AlertType, arg.Description, arg.Severity, arg.Location, arg.CreatedBy, arg.CreatedAt)
	return scanAlert(row)
}

const getAlert = `SELECT ` + alertColumns + ` FROM alerts WHERE id = ?`

func (q *Queries) GetAlert(ctx context.Context, id int64) (Alert, error) {
	return scanAlert(q.db.QueryRowContext(ctx, getAlert, id))
}

const resolveAlert = `UPDATE alerts SET resolved = 1 WHERE id = ? AND resolved = 0`

// ResolveAlert marks an alert resolved and reports whether a row changed.
func (q *Queries) ResolveAlert(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, resolveAlert, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const listAlerts = `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC, id DESC`

func (q *Queries) ListAlerts(ctx context.Context) ([]Alert, error) {
	return q.queryAlerts(ctx, listAlerts)
}

const listRecentAlerts = `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at DESC, id DESC LIMIT ?`

func (q *Queries) ListRecentAlerts(ctx context.Context, limit int64) ([]Alert, error) {
	return q.queryAlerts(ctx, listRecentAlerts, limit)
}

const countUnresolvedAlerts = `SELECT COUNT(*) FROM alerts WHERE resolved = 0`

func (q *Queries) CountUnresolvedAlerts(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUnresolvedAlerts).Scan(&n)
	return n, err
}

func (q *Queries) queryAlerts(ctx context.Context, query string, args ...any) ([]Alert, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
