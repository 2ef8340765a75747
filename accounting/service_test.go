// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ckpool.org/ckdb/accounting"
	"ckpool.org/ckdb/ckdbtest"
	"ckpool.org/ckdb/fieldtext"
	"ckpool.org/ckdb/internal/testcontext"
)

func newService(t *testing.T) (*accounting.Service, *ckdbtest.DB, *accounting.Cache) {
	db := ckdbtest.NewDB()
	cache := accounting.NewCache()
	service, err := accounting.NewService(zaptest.NewLogger(t), db, cache)
	require.NoError(t, err)
	return service, db, cache
}

func historyDates(now time.Time) accounting.HistoryDates {
	return accounting.NewHistoryDates(now, "code", "cmd", "127.0.0.1")
}

func TestSecondaryUserID(t *testing.T) {
	for _, tt := range []struct {
		username string
		email    string
		want     string
	}{
		{"alice", "alice@example.com", "df60fad9bf7af7be"},
		{"bob", "bob@example.com", "500dbeb0318d2e08"},
		{"ck", "ck@example.com", "13f43fc7d80b343e"},
		{"alice", "other@example.com", "05d0180f041b03e2"},
	} {
		assert.Equal(t, tt.want, accounting.SecondaryUserID(tt.username, tt.email), "%s/%s", tt.username, tt.email)
	}
}

func TestAddUser(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, db, cache := newService(t)
	now := fieldtext.Now()

	user, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(now))
	require.NoError(t, err)

	// userids start above the counter seed by a randomized gap.
	assert.GreaterOrEqual(t, user.UserID, int64(666))
	assert.LessOrEqual(t, user.UserID, int64(999))
	assert.Equal(t, "df60fad9bf7af7be", user.SecondaryUserID)
	assert.True(t, user.JoinedDate.Equal(now))
	assert.True(t, user.ExpiryDate.Equal(fieldtext.DefaultExpiry))

	second, err := service.AddUser(ctx, "bob", "bob@example.com", "cafe02", historyDates(now))
	require.NoError(t, err)
	gap := second.UserID - user.UserID
	assert.GreaterOrEqual(t, gap, int64(666))
	assert.LessOrEqual(t, gap, int64(999))

	rows, err := db.Users().SelectLive(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 2, cache.Users.Len())
}

func TestAddUserDuplicateUsername(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, cache := newService(t)
	now := fieldtext.Now()

	_, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(now))
	require.NoError(t, err)

	_, err = service.AddUser(ctx, "alice", "other@example.com", "cafe02", historyDates(now.Add(time.Second)))
	require.Error(t, err)
	assert.Equal(t, 1, cache.Users.Len())
}

func TestCheckPassword(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, _ := newService(t)
	now := fieldtext.Now()

	_, err := service.AddUser(ctx, "alice", "alice@example.com", "CAFE01", historyDates(now))
	require.NoError(t, err)

	assert.True(t, service.CheckPassword(ctx, "alice", "cafe01"))
	assert.True(t, service.CheckPassword(ctx, "alice", "CAFE01"))
	assert.False(t, service.CheckPassword(ctx, "alice", "cafe02"))
	assert.False(t, service.CheckPassword(ctx, "nobody", "cafe01"))
}

func TestAuthoriseCreatesWorker(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, cache := newService(t)
	now := fieldtext.Now()

	user, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(now))
	require.NoError(t, err)

	secondary, err := service.Authorise(ctx, "alice", "alice.rig0", 17, "e1f00d", "cgminer/4.9", historyDates(now))
	require.NoError(t, err)
	assert.Equal(t, user.SecondaryUserID, secondary)

	require.Equal(t, 1, cache.Workers.Len())
	var worker *accounting.Worker
	cache.Workers.Ascend(accounting.WorkersByUser, func(w *accounting.Worker) bool {
		worker = w
		return false
	})
	require.NotNil(t, worker)
	assert.Equal(t, user.UserID, worker.UserID)
	assert.Equal(t, "alice.rig0", worker.WorkerName)
	assert.Equal(t, int32(accounting.DifficultyDefault), worker.DifficultyDefault)
	assert.Equal(t, accounting.IdleNotificationEnabledDefault, worker.IdleNotificationEnabled)
	assert.Equal(t, int32(accounting.IdleNotificationTimeDefault), worker.IdleNotificationTime)

	// A second authorisation reuses the worker but records a new auth.
	_, err = service.Authorise(ctx, "alice", "alice.rig0", 18, "e1f00e", "cgminer/4.9", historyDates(now.Add(time.Second)))
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Workers.Len())
	assert.Equal(t, 2, cache.Auths.Len())
}

func TestAuthoriseUnknownUser(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, _ := newService(t)

	_, err := service.Authorise(ctx, "nobody", "nobody.rig0", 1, "e1", "agent", historyDates(fieldtext.Now()))
	require.Error(t, err)
}

func TestSetWorkerClampsOnAdd(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, _ := newService(t)
	now := fieldtext.Now()

	_, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(now))
	require.NoError(t, err)

	worker, err := service.SetWorker(ctx, "alice", "alice.rig0", 3, "Yes", 5, historyDates(now))
	require.NoError(t, err)
	assert.Equal(t, int32(accounting.DifficultyDefaultMin), worker.DifficultyDefault)
	// Below-minimum notification times disable notification entirely.
	assert.Equal(t, accounting.IdleNotificationEnabledDefault, worker.IdleNotificationEnabled)
	assert.Equal(t, int32(accounting.IdleNotificationTimeMin), worker.IdleNotificationTime)

	worker, err = service.SetWorker(ctx, "alice", "alice.rig1", 2000000, "y", 3600, historyDates(now))
	require.NoError(t, err)
	assert.Equal(t, int32(accounting.DifficultyDefaultMax), worker.DifficultyDefault)
	assert.Equal(t, accounting.IdleNotificationEnabled, worker.IdleNotificationEnabled)
	assert.Equal(t, int32(accounting.IdleNotificationTimeDefault), worker.IdleNotificationTime)
}

func TestSetWorkerUpdateOnlyOnChange(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, db, _ := newService(t)
	now := fieldtext.Now()

	_, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(now))
	require.NoError(t, err)

	first, err := service.SetWorker(ctx, "alice", "alice.rig0", 64, "y", 30, historyDates(now))
	require.NoError(t, err)
	require.Len(t, db.AllWorkers(), 1)

	// Same settings again: no new version.
	again, err := service.SetWorker(ctx, "alice", "alice.rig0", 64, "y", 30, historyDates(now.Add(time.Second)))
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Len(t, db.AllWorkers(), 1)

	// A real change expires the old version and inserts a replacement.
	changed, err := service.SetWorker(ctx, "alice", "alice.rig0", 128, "y", 30, historyDates(now.Add(2*time.Second)))
	require.NoError(t, err)
	assert.Equal(t, int32(128), changed.DifficultyDefault)
	assert.Equal(t, first.WorkerID, changed.WorkerID)

	all := db.AllWorkers()
	require.Len(t, all, 2)
	assert.True(t, all[0].ExpiryDate.Equal(changed.CreateDate))
	assert.True(t, all[1].ExpiryDate.Equal(fieldtext.DefaultExpiry))

	// Out-of-range values on update keep the current settings.
	same, err := service.SetWorker(ctx, "alice", "alice.rig0", 0, "y", 9999, historyDates(now.Add(3*time.Second)))
	require.NoError(t, err)
	assert.Same(t, changed, same)
	assert.Len(t, db.AllWorkers(), 2)
}

func TestAddShareResolution(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, _, cache := newService(t)
	now := fieldtext.Now()

	_, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(now))
	require.NoError(t, err)
	_, err = service.Authorise(ctx, "alice", "alice.rig0", 17, "e1f00d", "cgminer/4.9", historyDates(now))
	require.NoError(t, err)

	share := &accounting.Share{
		WorkinfoID:   6040059302209999370,
		WorkerName:   "alice.rig0",
		ClientID:     17,
		Enonce1:      "e1f00d",
		Nonce2:       "0a0a",
		Nonce:        "deadbeef",
		Diff:         64,
		SDiff:        71.25,
		HistoryDates: historyDates(now),
	}

	// The work unit does not exist yet.
	require.Error(t, service.AddShare(ctx, "alice", share))

	err = service.AddWorkinfo(ctx, &accounting.Workinfo{
		WorkinfoID:   6040059302209999370,
		PoolInstance: "ckpool",
		PrevHash:     "00af3b",
		Bits:         "1a0fffff",
		NTime:        "5cf34d1b",
		Reward:       2513414062,
		HistoryDates: historyDates(now),
	})
	require.NoError(t, err)

	require.NoError(t, service.AddShare(ctx, "alice", share))
	assert.Equal(t, 1, cache.Shares.Len())

	// Unknown user and unknown worker are both rejected.
	require.Error(t, service.AddShare(ctx, "nobody", &accounting.Share{
		WorkinfoID:   6040059302209999370,
		WorkerName:   "nobody.rig0",
		HistoryDates: historyDates(now),
	}))
	require.Error(t, service.AddShare(ctx, "alice", &accounting.Share{
		WorkinfoID:   6040059302209999370,
		WorkerName:   "alice.other",
		HistoryDates: historyDates(now),
	}))
	assert.Equal(t, 1, cache.Shares.Len())

	require.NoError(t, service.AddShareError(ctx, "alice", &accounting.ShareError{
		WorkinfoID:   6040059302209999370,
		WorkerName:   "alice.rig0",
		ClientID:     17,
		Errn:         23,
		Error:        "high-hash",
		HistoryDates: historyDates(now),
	}))
	assert.Equal(t, 1, cache.ShareErrors.Len())
}

func TestAddPoolStatsThrottle(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, db, cache := newService(t)
	now := fieldtext.Now()

	stat := func(instance string, at time.Time) *accounting.PoolStat {
		return &accounting.PoolStat{
			PoolInstance: instance,
			Elapsed:      60,
			Users:        3,
			Workers:      5,
			Hashrate5m:   1.5e12,
			SimpleDates:  accounting.NewSimpleDates(at, "code", "cmd", "127.0.0.1"),
		}
	}

	stored, err := service.AddPoolStats(ctx, stat("ckpool", now))
	require.NoError(t, err)
	assert.True(t, stored)

	// Within the window: cached but not written.
	stored, err = service.AddPoolStats(ctx, stat("ckpool", now.Add(60*time.Second)))
	require.NoError(t, err)
	assert.False(t, stored)

	// Exactly the window is still inside it.
	stored, err = service.AddPoolStats(ctx, stat("ckpool", now.Add(accounting.StatsPer)))
	require.NoError(t, err)
	assert.False(t, stored)

	stored, err = service.AddPoolStats(ctx, stat("ckpool", now.Add(600*time.Second)))
	require.NoError(t, err)
	assert.True(t, stored)

	// Another instance keeps its own clock.
	stored, err = service.AddPoolStats(ctx, stat("solo", now.Add(61*time.Second)))
	require.NoError(t, err)
	assert.True(t, stored)

	assert.Equal(t, 3, db.StoredPoolStats())
	assert.Equal(t, 5, cache.PoolStats.Len())

	latest, ok := service.LatestPoolStats("ckpool")
	require.True(t, ok)
	assert.True(t, latest.CreateDate.Equal(now.Add(600*time.Second)))
	_, ok = service.LatestPoolStats("unknown")
	assert.False(t, ok)
}

func TestAddPoolStatsThrottleSurvivesReload(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, db, cache := newService(t)
	now := fieldtext.Now()

	stat := func(at time.Time) *accounting.PoolStat {
		return &accounting.PoolStat{
			PoolInstance: "ckpool",
			Elapsed:      60,
			Users:        3,
			Workers:      5,
			SimpleDates:  accounting.NewSimpleDates(at, "code", "cmd", "127.0.0.1"),
		}
	}

	stored, err := service.AddPoolStats(ctx, stat(now))
	require.NoError(t, err)
	require.True(t, stored)

	// Memory-only snapshots never advance the throttle clock.
	stored, err = service.AddPoolStats(ctx, stat(now.Add(60*time.Second)))
	require.NoError(t, err)
	require.False(t, stored)

	// A reload drops the memory-only row and rebuilds the clock from the
	// rows the database kept.
	require.NoError(t, service.ReloadPoolStats(ctx))
	assert.Equal(t, 1, cache.PoolStats.Len())

	stored, err = service.AddPoolStats(ctx, stat(now.Add(120*time.Second)))
	require.NoError(t, err)
	assert.False(t, stored)

	stored, err = service.AddPoolStats(ctx, stat(now.Add(600*time.Second)))
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, 2, db.StoredPoolStats())
}

func TestNewID(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, db, _ := newService(t)
	now := fieldtext.Now()
	dates := accounting.NewModifyDates(now, "code", "cmd", "127.0.0.1")

	require.NoError(t, service.NewID(ctx, "paymentid", 42, dates))

	next, err := db.IDs().Next(ctx, "paymentid", 1, now, "code", "cmd", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(43), next)

	// Reusing a name fails, as does advancing a counter that was never
	// created.
	require.Error(t, service.NewID(ctx, "paymentid", 0, dates))
	_, err = db.IDs().Next(ctx, "blockid", 1, now, "code", "cmd", "127.0.0.1")
	require.Error(t, err)
}

func TestPaymentsFor(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, db, _ := newService(t)
	now := fieldtext.Now()

	user, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(now))
	require.NoError(t, err)
	other, err := service.AddUser(ctx, "bob", "bob@example.com", "cafe02", historyDates(now))
	require.NoError(t, err)

	pay := func(userID int64, id int64, at time.Time, amount int64) *accounting.Payment {
		return &accounting.Payment{
			PaymentID:    id,
			UserID:       userID,
			PayDate:      at,
			PayAddress:   "1BTCaddr",
			Amount:       amount,
			HistoryDates: historyDates(at),
		}
	}
	db.AddPayment(pay(user.UserID, 3, now.Add(48*time.Hour), 125000000))
	db.AddPayment(pay(user.UserID, 1, now, 50000000))
	db.AddPayment(pay(other.UserID, 2, now.Add(time.Hour), 7700000))

	require.NoError(t, service.ReloadPayments(ctx))

	rows, ok := service.PaymentsFor(ctx, "alice")
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].PaymentID)
	assert.Equal(t, int64(3), rows[1].PaymentID)

	rows, ok = service.PaymentsFor(ctx, "bob")
	require.True(t, ok)
	require.Len(t, rows, 1)

	_, ok = service.PaymentsFor(ctx, "nobody")
	assert.False(t, ok)
}

func TestFillAndReload(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, db, cache := newService(t)
	now := fieldtext.Now()

	_, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(now))
	require.NoError(t, err)
	_, err = service.Authorise(ctx, "alice", "alice.rig0", 17, "e1f00d", "cgminer/4.9", historyDates(now))
	require.NoError(t, err)
	_, err = service.AddPoolStats(ctx, &accounting.PoolStat{
		PoolInstance: "ckpool",
		SimpleDates:  accounting.NewSimpleDates(now, "code", "cmd", "127.0.0.1"),
	})
	require.NoError(t, err)

	// A second service over the same database starts cold and fills
	// everything back.
	fresh := accounting.NewCache()
	restarted, err := accounting.NewService(zaptest.NewLogger(t), db, fresh)
	require.NoError(t, err)
	require.NoError(t, restarted.Fill(ctx))

	assert.Equal(t, 1, fresh.Users.Len())
	assert.Equal(t, 1, fresh.Workers.Len())
	assert.Equal(t, 1, fresh.Auths.Len())
	assert.Equal(t, 1, fresh.PoolStats.Len())
	assert.True(t, restarted.CheckPassword(ctx, "alice", "cafe01"))

	// Reload drops cached rows that vanished from the database.
	require.NoError(t, service.ReloadUsers(ctx))
	require.NoError(t, service.ReloadWorkers(ctx))
	require.NoError(t, service.ReloadAuths(ctx))
	require.NoError(t, service.ReloadPoolStats(ctx))
	require.NoError(t, service.ReloadWorkinfos(ctx))
	assert.Equal(t, 1, cache.Users.Len())
	assert.Equal(t, 1, cache.Workers.Len())
}

func TestAddUserDatabaseFailure(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	service, db, cache := newService(t)

	db.SetError(ckdbtest.Error.New("connection lost"))
	_, err := service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(fieldtext.Now()))
	require.Error(t, err)
	assert.Equal(t, 0, cache.Users.Len())

	db.SetError(nil)
	_, err = service.AddUser(ctx, "alice", "alice@example.com", "cafe01", historyDates(fieldtext.Now()))
	require.NoError(t, err)
}
