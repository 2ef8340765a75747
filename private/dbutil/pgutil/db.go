// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package pgutil contains postgres connection helpers shared by the
// database layer.
package pgutil

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/zeebo/errs"
)

// Open connects to the postgres database described by connstr and checks
// that the connection actually works, to make troubleshooting (lots)
// easier.
func Open(ctx context.Context, connstr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connstr)
	if err == nil {
		err = db.PingContext(ctx)
	}
	if err != nil {
		return nil, errs.New("failed to connect to %q with driver postgres: %v", connstr, err)
	}
	return db, nil
}

// IsConstraintError checks if given error is about constraint violation.
func IsConstraintError(err error) bool {
	return errs.IsFunc(err, func(err error) bool {
		if e, ok := err.(*pq.Error); ok {
			if e.Code.Class() == "23" {
				return true
			}
		}
		return false
	})
}
