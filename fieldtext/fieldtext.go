// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package fieldtext converts between database/wire text and typed values.
//
// All timestamps carry microsecond precision. Text forms follow the
// PostgreSQL session rendering: fields are interpreted in local time and
// the numeric zone suffix of database output is read and discarded.
package fieldtext

import (
	"time"

	"github.com/zeebo/errs"
)

// Error is the fieldtext error class.
var Error = errs.Class("fieldtext")

// Column width limits shared by the database schema and the codec.
const (
	TextBig    = 256
	TextMedium = 128
	TextSmall  = 64
	TextFlag   = 1
)

var (
	// DefaultExpiry marks a row as live. 6666-06-06 06:06:06+00.
	DefaultExpiry = time.Unix(148204965966, 0).UTC()

	// CompareExpiry is the clamp threshold for parsed timestamps.
	// Anything above it collapses to DefaultExpiry, which absorbs zone
	// offset drift on the sentinel. 6666-06-01 00:00:00+00.
	CompareExpiry = time.Unix(148204512000, 0).UTC()

	// DateEOT is the "not yet known" upper bound, distinct from
	// DefaultExpiry. 9999-12-31 23:59:59+00.
	DateEOT = time.Unix(253402300799, 0).UTC()
)

// Now returns the wall clock truncated to microseconds. Truncation also
// drops the monotonic reading, so stamped and reloaded values compare
// equal.
func Now() time.Time {
	return time.Now().Truncate(time.Microsecond)
}

// ClampExpiry applies the CompareExpiry threshold.
func ClampExpiry(t time.Time) time.Time {
	if t.Unix() > CompareExpiry.Unix() {
		return DefaultExpiry
	}
	return t
}
