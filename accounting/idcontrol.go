// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import (
	"context"
	"time"
)

// IDControl is a named primary-key counter.
type IDControl struct {
	IDName string
	LastID int64

	ModifyDates
}

// IDs exposes the idcontrol table.
//
// architecture: Database
type IDs interface {
	// Insert stores a new counter row.
	Insert(ctx context.Context, row *IDControl) error
	// Next advances the named counter by increment inside one
	// transaction, stamping the modify fields, and returns the new
	// value.
	Next(ctx context.Context, idname string, increment int64, now time.Time, by, code, inet string) (int64, error)
}
