// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import (
	"context"
	"fmt"
	"time"
)

// User is one version of a pool account row.
type User struct {
	UserID          int64
	Username        string
	EmailAddress    string
	JoinedDate      time.Time
	PasswordHash    string
	SecondaryUserID string

	HistoryDates
}

// Users exposes the users table.
//
// architecture: Database
type Users interface {
	// Insert stores a new live row.
	Insert(ctx context.Context, user *User) error
	// SelectLive returns every live row.
	SelectLive(ctx context.Context) ([]*User, error)
}

// SecondaryUserID derives the stable identity token handed back to the
// pool: a 64-bit Bernstein hash of "username&#emailaddress" rendered as
// sixteen hex digits.
func SecondaryUserID(username, emailaddress string) string {
	var h uint64
	for _, c := range []byte(username + "&#" + emailaddress) {
		h = h*33 + uint64(c)
	}
	return fmt.Sprintf("%016x", h)
}

func usersByNameLess(a, b *User) bool {
	if a.Username != b.Username {
		return a.Username < b.Username
	}
	return a.ExpiryDate.After(b.ExpiryDate)
}

func usersByIDLess(a, b *User) bool {
	if a.UserID != b.UserID {
		return a.UserID < b.UserID
	}
	return a.ExpiryDate.After(b.ExpiryDate)
}
