// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import (
	"context"
	"time"
)

// StatsPer is the minimum createdate gap between stored pool statistics
// rows of one pool instance. Snapshots arriving faster than this are
// kept in memory but not written to the database.
const StatsPer = 570 * time.Second

// PoolStat is a pool statistics snapshot.
type PoolStat struct {
	PoolInstance string
	Elapsed      int64
	Users        int32
	Workers      int32
	Hashrate     float64
	Hashrate5m   float64
	Hashrate1hr  float64
	Hashrate24hr float64

	SimpleDates
}

// PoolStats exposes the poolstats table.
//
// architecture: Database
type PoolStats interface {
	// Insert stores a new row.
	Insert(ctx context.Context, stat *PoolStat) error
	// SelectAll returns every row.
	SelectAll(ctx context.Context) ([]*PoolStat, error)
}

func poolStatsByInstanceLess(a, b *PoolStat) bool {
	if a.PoolInstance != b.PoolInstance {
		return a.PoolInstance < b.PoolInstance
	}
	return a.CreateDate.Before(b.CreateDate)
}
