// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const visitorColumns = `id, name, contact, purpose, id_type, id_number, badge, check_in, check_out, registered_by, status`

func scanVisitor(row scanner) (Visitor, error) {
	var v Visitor
	err := row.Scan(&v.ID, &v.Name, &v.Contact, &v.Purpose, &v.IDType, &v.IDNumber,
		&v.Badge, &v.CheckIn, &v.CheckOut, &v.RegisteredBy, &v.Status)
	return v, err
}

// CreateVisitorParams holds the fields of a new visitor row. Status is always
// checked_in on creation.
type CreateVisitorParams struct {
	Name         string
	Contact      string
	Purpose      string
	IDType       string
	IDNumber     string
	Badge        string
	CheckIn      time.Time
	RegisteredBy string
}

const createVisitor = `INSERT INTO visitors (name, contact, purpose, id_type, id_number, badge, check_in, registered_by, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'checked_in')
RETURNING ` + visitorColumns

func (q *Queries) CreateVisitor(ctx context.Context, arg CreateVisitorParams) (Visitor, error) {
	row := q.db.QueryRowContext(ctx, createVisitor,
		arg.Name, arg.Contact, arg.Purpose, arg.IDType, arg.IDNumber,
		arg.Badge, arg.CheckIn, arg.RegisteredBy)
	return scanVisitor(row)
}

const getVisitor = `SELECT ` + visitorColumns + ` FROM visitors WHERE id = ?`

func (q *Queries) GetVisitor(ctx context.Context, id int64) (Visitor, error) {
	return scanVisitor(q.db.QueryRowContext(ctx, getVisitor, id))
}

const checkoutVisitor = `UPDATE visitors SET check_out = ?, status = 'checked_out'
WHERE id = ? AND status = 'checked_in'`

// CheckoutVisitor moves a checked-in visitor to checked_out. It reports
// whether a row changed; an already checked-out visitor is left untouched.
func (q *Queries) CheckoutVisitor(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := q.db.ExecContext(ctx, checkoutVisitor, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const listVisitors = `SELECT ` + visitorColumns + ` FROM visitors ORDER BY check_in DESC, id DESC`

func (q *Queries) ListVisitors(ctx context.Context) ([]Visitor, error) {
	return q.queryVisitors(ctx, listVisitors)
}

const listCheckedInVisitors = `SELECT ` + visitorColumns + ` FROM visitors
WHERE status = 'checked_in' ORDER BY check_in DESC, id DESC`

func (q *Queries) ListCheckedInVisitors(ctx context.Context) ([]Visitor, error) {
	return q.queryVisitors(ctx, listCheckedInVisitors)
}

const listVisitorsCheckedInBefore = `SELECT ` + visitorColumns + ` FROM visitors
WHERE status = 'checked_in' AND check_in < ? ORDER BY check_in ASC, id ASC`

// ListVisitorsCheckedInBefore returns visitors still on site who checked in
// before cutoff, oldest first.
func (q *Queries) ListVisitorsCheckedInBefore(ctx context.Context, cutoff time.Time) ([]Visitor, error) {
	return q.queryVisitors(ctx, listVisitorsCheckedInBefore, cutoff)
}

const countCheckedInVisitors = `SELECT COUNT(*) FROM visitors WHERE status = 'checked_in'`

func (q *Queries) CountCheckedInVisitors(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCheckedInVisitors).Scan(&n)
	return n, err
}

func (q *Queries) queryVisitors(ctx context.Context, query string, args ...any) ([]Visitor, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, rows.Err()
}
