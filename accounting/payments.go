// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import (
	"context"
	"time"
)

// Payment is one version of a payout row. Amount is in satoshis.
type Payment struct {
	PaymentID       int64
	UserID          int64
	PayDate         time.Time
	PayAddress      string
	OriginalTxn     string
	Amount          int64
	CommitTxn       string
	CommitBlockHash string

	HistoryDates
}

// Payments exposes the payments table.
//
// architecture: Database
type Payments interface {
	// SelectLive returns every live row.
	SelectLive(ctx context.Context) ([]*Payment, error)
}

func paymentsByUserLess(a, b *Payment) bool {
	if a.UserID != b.UserID {
		return a.UserID < b.UserID
	}
	if !a.PayDate.Equal(b.PayDate) {
		return a.PayDate.Before(b.PayDate)
	}
	if a.PayAddress != b.PayAddress {
		return a.PayAddress < b.PayAddress
	}
	return a.ExpiryDate.After(b.ExpiryDate)
}
