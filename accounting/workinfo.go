// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import "context"

// Workinfo is a block template work unit. Rows are never expired and
// never reloaded: the transaction tree blob makes them too large to read
// back in bulk.
type Workinfo struct {
	WorkinfoID      int64
	PoolInstance    string
	TransactionTree string
	MerkleHash      string
	PrevHash        string
	Coinbase1       string
	Coinbase2       string
	Version         string
	Bits            string
	NTime           string
	Reward          int64

	HistoryDates
}

// Workinfos exposes the workinfo table.
//
// architecture: Database
type Workinfos interface {
	// Insert stores a new live row.
	Insert(ctx context.Context, workinfo *Workinfo) error
}

func workinfosByIDLess(a, b *Workinfo) bool {
	if a.WorkinfoID != b.WorkinfoID {
		return a.WorkinfoID < b.WorkinfoID
	}
	return a.ExpiryDate.After(b.ExpiryDate)
}
