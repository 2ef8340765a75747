// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

// Share is an accepted share submission. Shares are held in memory only
// and are not persisted.
type Share struct {
	WorkinfoID      int64
	UserID          int64
	WorkerName      string
	ClientID        int32
	Enonce1         string
	Nonce2          string
	Nonce           string
	Diff            float64
	SDiff           float64
	SecondaryUserID string

	// Errn and Error mirror the reject columns of the share table
	// schema. The accepted-share path leaves them zero; rejects arrive
	// as ShareError rows instead.
	Errn  int32
	Error string

	HistoryDates
}

// ShareError is a rejected share submission. Like shares, rows are held
// in memory only.
type ShareError struct {
	WorkinfoID      int64
	UserID          int64
	WorkerName      string
	ClientID        int32
	Errn            int32
	Error           string
	SecondaryUserID string

	HistoryDates
}

func sharesByWorkinfoLess(a, b *Share) bool {
	if a.WorkinfoID != b.WorkinfoID {
		return a.WorkinfoID < b.WorkinfoID
	}
	if a.UserID != b.UserID {
		return a.UserID < b.UserID
	}
	if !a.CreateDate.Equal(b.CreateDate) {
		return a.CreateDate.Before(b.CreateDate)
	}
	if a.Nonce != b.Nonce {
		return a.Nonce < b.Nonce
	}
	return a.ExpiryDate.After(b.ExpiryDate)
}

func shareErrorsByWorkinfoLess(a, b *ShareError) bool {
	if a.WorkinfoID != b.WorkinfoID {
		return a.WorkinfoID < b.WorkinfoID
	}
	if a.UserID != b.UserID {
		return a.UserID < b.UserID
	}
	if !a.CreateDate.Equal(b.CreateDate) {
		return a.CreateDate.Before(b.CreateDate)
	}
	return a.ExpiryDate.After(b.ExpiryDate)
}
