// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import (
	"time"

	"ckpool.org/ckdb/fieldtext"
)

// HistoryDates is the audit bundle carried by history entities. A live
// row has ExpiryDate equal to fieldtext.DefaultExpiry; expiring a row
// sets it to the moment its replacement was created.
type HistoryDates struct {
	CreateDate time.Time
	CreateBy   string
	CreateCode string
	CreateInet string
	ExpiryDate time.Time
}

// NewHistoryDates stamps a new live row.
func NewHistoryDates(now time.Time, by, code, inet string) HistoryDates {
	return HistoryDates{
		CreateDate: now,
		CreateBy:   by,
		CreateCode: code,
		CreateInet: inet,
		ExpiryDate: fieldtext.DefaultExpiry,
	}
}

// SimpleDates is the audit bundle of entities whose rows are never
// expired.
type SimpleDates struct {
	CreateDate time.Time
	CreateBy   string
	CreateCode string
	CreateInet string
}

// NewSimpleDates stamps a new row.
func NewSimpleDates(now time.Time, by, code, inet string) SimpleDates {
	return SimpleDates{
		CreateDate: now,
		CreateBy:   by,
		CreateCode: code,
		CreateInet: inet,
	}
}

// ModifyDates is the audit bundle of idcontrol rows, which are updated
// in place instead of expired.
type ModifyDates struct {
	CreateDate time.Time
	CreateBy   string
	CreateCode string
	CreateInet string
	ModifyDate time.Time
	ModifyBy   string
	ModifyCode string
	ModifyInet string
}

// NewModifyDates stamps a new row. The modify fields start at the epoch
// and are set by the first in-place update.
func NewModifyDates(now time.Time, by, code, inet string) ModifyDates {
	return ModifyDates{
		CreateDate: now,
		CreateBy:   by,
		CreateCode: code,
		CreateInet: inet,
		ModifyDate: time.Unix(0, 0),
	}
}
