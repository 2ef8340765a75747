// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import "context"

// Bounds and defaults for worker settings.
const (
	DifficultyDefaultMin = 10
	DifficultyDefaultMax = 1000000
	DifficultyDefault    = 10

	IdleNotificationEnabled        = "y"
	IdleNotificationEnabledDefault = " "
	IdleNotificationTimeMin        = 10
	IdleNotificationTimeMax        = 60
	IdleNotificationTimeDefault    = 10
)

// Worker is one version of a worker row.
type Worker struct {
	WorkerID                int64
	UserID                  int64
	WorkerName              string
	DifficultyDefault       int32
	IdleNotificationEnabled string
	IdleNotificationTime    int32

	HistoryDates
}

// Workers exposes the workers table.
//
// architecture: Database
type Workers interface {
	// Insert stores a new live row.
	Insert(ctx context.Context, worker *Worker) error
	// Update expires the live version of the row's worker and stores
	// the row as its replacement, in one transaction.
	Update(ctx context.Context, worker *Worker) error
	// SelectLive returns every live row.
	SelectLive(ctx context.Context) ([]*Worker, error)
}

func workersByUserLess(a, b *Worker) bool {
	if a.UserID != b.UserID {
		return a.UserID < b.UserID
	}
	if a.WorkerName != b.WorkerName {
		return a.WorkerName < b.WorkerName
	}
	return a.ExpiryDate.After(b.ExpiryDate)
}
