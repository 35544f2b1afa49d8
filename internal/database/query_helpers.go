// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"database/sql"
	"strings"
)

// queryBuilder accumulates WHERE conditions and their arguments in order.
// The base query must already contain a WHERE clause.
type queryBuilder struct {
	base       string
	conditions []string
	args       []interface{}
}

func newQueryBuilder(base string) *queryBuilder {
	return &queryBuilder{base: base, args: make([]interface{}, 0, 8)}
}

func (qb *queryBuilder) addFilter(condition string, args ...interface{}) {
	qb.conditions = append(qb.conditions, condition)
	qb.args = append(qb.args, args...)
}

// addLimit appends the argument for a trailing "LIMIT ?" in the suffix.
func (qb *queryBuilder) addLimit(limit int) *queryBuilder {
	qb.args = append(qb.args, limit)
	return qb
}

func (qb *queryBuilder) build(suffix string) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(qb.base)
	for _, c := range qb.conditions {
		sb.WriteString(" AND ")
		sb.WriteString(c)
	}
	if suffix != "" {
		sb.WriteByte(' ')
		sb.WriteString(suffix)
	}
	return sb.String(), qb.args
}

// queryAndScan runs query and scans every row with scan.
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []interface{}, scan func(*sql.Rows) (T, error)) (_ []T, err error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
