// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package ckdbtest provides an in-memory accounting.DB for tests.
package ckdbtest

import (
	"context"
	"sync"
	"time"

	"github.com/zeebo/errs"

	"ckpool.org/ckdb/accounting"
	"ckpool.org/ckdb/fieldtext"
)

// Error is the class of ckdbtest errors.
var Error = errs.Class("ckdbtest")

// DB keeps every table in slices and maps, guarded by one mutex. It
// honors the same uniqueness rules as the real schema.
type DB struct {
	mu sync.Mutex

	users     []*accounting.User
	workers   []*accounting.Worker
	payments  []*accounting.Payment
	workinfos []*accounting.Workinfo
	auths     []*accounting.Auth
	poolStats []*accounting.PoolStat
	ids       map[string]*accounting.IDControl

	err error
}

// NewDB returns an empty database with the userid, workerid and authid
// counters seeded at zero, like a freshly migrated schema.
func NewDB() *DB {
	db := &DB{ids: make(map[string]*accounting.IDControl)}
	for _, idname := range []string{"userid", "workerid", "authid"} {
		db.ids[idname] = &accounting.IDControl{
			IDName:      idname,
			LastID:      0,
			ModifyDates: accounting.NewModifyDates(time.Now(), "ckdb", "seed", "127.0.0.1"),
		}
	}
	return db
}

// SetError makes every following write fail with err until cleared
// with nil.
func (db *DB) SetError(err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.err = err
}

// AddPayment seeds a payout row directly, bypassing the repositories.
func (db *DB) AddPayment(payment *accounting.Payment) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.payments = append(db.payments, payment)
}

// AllWorkers returns every stored worker version, expired included.
func (db *DB) AllWorkers() []*accounting.Worker {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]*accounting.Worker(nil), db.workers...)
}

// StoredPoolStats returns how many snapshots reached the database.
func (db *DB) StoredPoolStats() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.poolStats)
}

// Users implements accounting.DB.
func (db *DB) Users() accounting.Users { return &usersRepo{db} }

// Workers implements accounting.DB.
func (db *DB) Workers() accounting.Workers { return &workersRepo{db} }

// Payments implements accounting.DB.
func (db *DB) Payments() accounting.Payments { return &paymentsRepo{db} }

// Workinfos implements accounting.DB.
func (db *DB) Workinfos() accounting.Workinfos { return &workinfosRepo{db} }

// Auths implements accounting.DB.
func (db *DB) Auths() accounting.Auths { return &authsRepo{db} }

// PoolStats implements accounting.DB.
func (db *DB) PoolStats() accounting.PoolStats { return &poolStatsRepo{db} }

// IDs implements accounting.DB.
func (db *DB) IDs() accounting.IDs { return &idsRepo{db} }

// CreateTables implements accounting.DB.
func (db *DB) CreateTables(ctx context.Context) error { return nil }

// Close implements accounting.DB.
func (db *DB) Close() error { return nil }

func live(expiry time.Time) bool {
	return expiry.Equal(fieldtext.DefaultExpiry)
}

type usersRepo struct{ db *DB }

func (repo *usersRepo) Insert(ctx context.Context, user *accounting.User) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if repo.db.err != nil {
		return repo.db.err
	}
	for _, row := range repo.db.users {
		if row.UserID == user.UserID && row.ExpiryDate.Equal(user.ExpiryDate) {
			return Error.New("duplicate users key (%d, %s)", user.UserID, user.ExpiryDate)
		}
	}
	repo.db.users = append(repo.db.users, user)
	return nil
}

func (repo *usersRepo) SelectLive(ctx context.Context) ([]*accounting.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	var rows []*accounting.User
	for _, row := range repo.db.users {
		if live(row.ExpiryDate) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type workersRepo struct{ db *DB }

func (repo *workersRepo) Insert(ctx context.Context, worker *accounting.Worker) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if repo.db.err != nil {
		return repo.db.err
	}
	repo.db.workers = append(repo.db.workers, worker)
	return nil
}

func (repo *workersRepo) Update(ctx context.Context, worker *accounting.Worker) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if repo.db.err != nil {
		return repo.db.err
	}
	for _, row := range repo.db.workers {
		if row.UserID == worker.UserID && row.WorkerName == worker.WorkerName && live(row.ExpiryDate) {
			row.ExpiryDate = worker.CreateDate
			repo.db.workers = append(repo.db.workers, worker)
			return nil
		}
	}
	return Error.New("no live row for worker %q of user %d", worker.WorkerName, worker.UserID)
}

func (repo *workersRepo) SelectLive(ctx context.Context) ([]*accounting.Worker, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	var rows []*accounting.Worker
	for _, row := range repo.db.workers {
		if live(row.ExpiryDate) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type paymentsRepo struct{ db *DB }

func (repo *paymentsRepo) SelectLive(ctx context.Context) ([]*accounting.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	var rows []*accounting.Payment
	for _, row := range repo.db.payments {
		if live(row.ExpiryDate) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type workinfosRepo struct{ db *DB }

func (repo *workinfosRepo) Insert(ctx context.Context, workinfo *accounting.Workinfo) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if repo.db.err != nil {
		return repo.db.err
	}
	for _, row := range repo.db.workinfos {
		if row.WorkinfoID == workinfo.WorkinfoID && row.ExpiryDate.Equal(workinfo.ExpiryDate) {
			return Error.New("duplicate workinfo key (%d, %s)", workinfo.WorkinfoID, workinfo.ExpiryDate)
		}
	}
	repo.db.workinfos = append(repo.db.workinfos, workinfo)
	return nil
}

type authsRepo struct{ db *DB }

func (repo *authsRepo) Insert(ctx context.Context, auth *accounting.Auth) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if repo.db.err != nil {
		return repo.db.err
	}
	repo.db.auths = append(repo.db.auths, auth)
	return nil
}

func (repo *authsRepo) SelectLive(ctx context.Context) ([]*accounting.Auth, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	var rows []*accounting.Auth
	for _, row := range repo.db.auths {
		if live(row.ExpiryDate) {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type poolStatsRepo struct{ db *DB }

func (repo *poolStatsRepo) Insert(ctx context.Context, stat *accounting.PoolStat) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if repo.db.err != nil {
		return repo.db.err
	}
	repo.db.poolStats = append(repo.db.poolStats, stat)
	return nil
}

func (repo *poolStatsRepo) SelectAll(ctx context.Context) ([]*accounting.PoolStat, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	return append([]*accounting.PoolStat(nil), repo.db.poolStats...), nil
}

type idsRepo struct{ db *DB }

func (repo *idsRepo) Insert(ctx context.Context, row *accounting.IDControl) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if repo.db.err != nil {
		return repo.db.err
	}
	if _, ok := repo.db.ids[row.IDName]; ok {
		return Error.New("duplicate idname %q", row.IDName)
	}
	repo.db.ids[row.IDName] = row
	return nil
}

func (repo *idsRepo) Next(ctx context.Context, idname string, increment int64, now time.Time, by, code, inet string) (int64, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	if repo.db.err != nil {
		return 0, repo.db.err
	}
	row, ok := repo.db.ids[idname]
	if !ok {
		return 0, Error.New("no counter named %q", idname)
	}
	row.LastID += increment
	row.ModifyDate = now
	row.ModifyBy = by
	row.ModifyCode = code
	row.ModifyInet = inet
	return row.LastID, nil
}
