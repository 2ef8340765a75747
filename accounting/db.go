// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import "context"

// DB contains access to the different accounting tables.
//
// architecture: Master Database
type DB interface {
	// Users is a getter for the Users repository.
	Users() Users
	// Workers is a getter for the Workers repository.
	Workers() Workers
	// Payments is a getter for the Payments repository.
	Payments() Payments
	// Workinfos is a getter for the Workinfos repository.
	Workinfos() Workinfos
	// Auths is a getter for the Auths repository.
	Auths() Auths
	// PoolStats is a getter for the PoolStats repository.
	PoolStats() PoolStats
	// IDs is a getter for the IDs repository.
	IDs() IDs

	// CreateTables initializes the schema.
	CreateTables(ctx context.Context) error
	// Close closes the database.
	Close() error
}
