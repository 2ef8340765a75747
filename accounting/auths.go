// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import "context"

// Auth is one worker authorisation event.
type Auth struct {
	AuthID     int64
	UserID     int64
	WorkerName string
	ClientID   int32
	Enonce1    string
	UserAgent  string

	HistoryDates
}

// Auths exposes the auths table.
//
// architecture: Database
type Auths interface {
	// Insert stores a new live row.
	Insert(ctx context.Context, auth *Auth) error
	// SelectLive returns every live row.
	SelectLive(ctx context.Context) ([]*Auth, error)
}

func authsByIDLess(a, b *Auth) bool {
	if a.AuthID != b.AuthID {
		return a.AuthID < b.AuthID
	}
	if a.UserID != b.UserID {
		return a.UserID < b.UserID
	}
	if !a.CreateDate.Equal(b.CreateDate) {
		return a.CreateDate.Before(b.CreateDate)
	}
	return a.ExpiryDate.After(b.ExpiryDate)
}
