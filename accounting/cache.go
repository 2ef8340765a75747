// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import "ckpool.org/ckdb/temporal"

// Index positions within the cache tables. Tables with a single
// ordering use index 0.
const (
	UsersByName = 0
	UsersByID   = 1

	WorkersByUser         = 0
	PaymentsByUser        = 0
	WorkinfosByID         = 0
	SharesByWorkinfo      = 0
	ShareErrorsByWorkinfo = 0
	AuthsByID             = 0
	PoolStatsByInstance   = 0
)

// Cache holds the in-memory mirror of every entity. History tables keep
// live rows sorted ahead of expired ones so that a probe with the live
// sentinel expiry lands on the current version.
type Cache struct {
	Users       *temporal.Table[*User]
	Workers     *temporal.Table[*Worker]
	Payments    *temporal.Table[*Payment]
	Workinfos   *temporal.Table[*Workinfo]
	Shares      *temporal.Table[*Share]
	ShareErrors *temporal.Table[*ShareError]
	Auths       *temporal.Table[*Auth]
	PoolStats   *temporal.Table[*PoolStat]
}

// NewCache creates empty tables with their orderings.
func NewCache() *Cache {
	return &Cache{
		Users:       temporal.New(usersByNameLess, usersByIDLess),
		Workers:     temporal.New(workersByUserLess),
		Payments:    temporal.New(paymentsByUserLess),
		Workinfos:   temporal.New(workinfosByIDLess),
		Shares:      temporal.New(sharesByWorkinfoLess),
		ShareErrors: temporal.New(shareErrorsByWorkinfoLess),
		Auths:       temporal.New(authsByIDLess),
		PoolStats:   temporal.New(poolStatsByInstanceLess),
	}
}
