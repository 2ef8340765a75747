// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package accounting

import (
	"context"
	"crypto/subtle"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"ckpool.org/ckdb/fieldtext"
)

var mon = monkit.Package()

// Error describes internal accounting error.
var Error = errs.Class("accounting service")

// New userids jump ahead by a random amount in this range so that ids
// reveal nothing about how many accounts exist. Every other counter
// advances by one.
const (
	useridIncrementMin  = 666
	useridIncrementSpan = 334
)

// Service is handling accounting related logic. Rows are written to the
// database first and linked into the cache only on success, so the cache
// never claims more than the database holds.
//
// architecture: Service
type Service struct {
	log   *zap.Logger
	db    DB
	cache *Cache

	mu         sync.Mutex
	lastStored map[string]time.Time // per poolinstance, snapshots that reached the database
}

// NewService returns a new Service.
func NewService(log *zap.Logger, db DB, cache *Cache) (*Service, error) {
	if log == nil {
		return nil, errs.New("log can't be nil")
	}
	if db == nil {
		return nil, errs.New("db can't be nil")
	}
	if cache == nil {
		return nil, errs.New("cache can't be nil")
	}
	return &Service{
		log:        log,
		db:         db,
		cache:      cache,
		lastStored: make(map[string]time.Time),
	}, nil
}

// AddUser registers a new account and returns the stored row. The
// username must not already have a live row.
func (service *Service) AddUser(ctx context.Context, username, emailaddress, passwordhash string, dates HistoryDates) (_ *User, err error) {
	defer mon.Task()(&ctx)(&err)

	if _, ok := service.findUser(username); ok {
		return nil, Error.New("username %q already exists", username)
	}

	increment := useridIncrementMin + rand.Int63n(useridIncrementSpan)
	userid, err := service.db.IDs().Next(ctx, "userid", increment,
		dates.CreateDate, dates.CreateBy, dates.CreateCode, dates.CreateInet)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	user := &User{
		UserID:          userid,
		Username:        username,
		EmailAddress:    emailaddress,
		JoinedDate:      dates.CreateDate,
		PasswordHash:    passwordhash,
		SecondaryUserID: SecondaryUserID(username, emailaddress),
		HistoryDates:    dates,
	}
	if err := service.db.Users().Insert(ctx, user); err != nil {
		return nil, Error.Wrap(err)
	}
	service.cache.Users.Insert(user)

	service.log.Info("Added user.", zap.String("username", username), zap.Int64("userid", userid))
	return user, nil
}

// CheckPassword reports whether passwordhash matches the live row of
// username, ignoring hex case. An unknown username is a mismatch.
func (service *Service) CheckPassword(ctx context.Context, username, passwordhash string) bool {
	defer mon.Task()(&ctx)(nil)

	user, ok := service.findUser(username)
	if !ok {
		return false
	}
	stored := []byte(strings.ToLower(user.PasswordHash))
	given := []byte(strings.ToLower(passwordhash))
	return subtle.ConstantTimeCompare(stored, given) == 1
}

// Authorise admits a worker of username, creating the worker row with
// default settings when it does not exist yet, and returns the account's
// secondary user id.
func (service *Service) Authorise(ctx context.Context, username, workername string, clientID int32, enonce1, useragent string, dates HistoryDates) (_ string, err error) {
	defer mon.Task()(&ctx)(&err)

	user, ok := service.findUser(username)
	if !ok {
		return "", Error.New("unknown username %q", username)
	}

	if _, err := service.ensureWorker(ctx, user.UserID, workername, dates); err != nil {
		return "", err
	}

	authid, err := service.db.IDs().Next(ctx, "authid", 1,
		dates.CreateDate, dates.CreateBy, dates.CreateCode, dates.CreateInet)
	if err != nil {
		return "", Error.Wrap(err)
	}

	auth := &Auth{
		AuthID:       authid,
		UserID:       user.UserID,
		WorkerName:   workername,
		ClientID:     clientID,
		Enonce1:      enonce1,
		UserAgent:    useragent,
		HistoryDates: dates,
	}
	if err := service.db.Auths().Insert(ctx, auth); err != nil {
		return "", Error.Wrap(err)
	}
	service.cache.Auths.Insert(auth)

	return user.SecondaryUserID, nil
}

// SetWorker creates the worker with the requested settings or replaces
// an existing live row. On update, out-of-range values keep the current
// setting and the database row is only expired and replaced when
// something actually changed.
func (service *Service) SetWorker(ctx context.Context, username, workername string, difficulty int32, idleEnabled string, idleTime int32, dates HistoryDates) (_ *Worker, err error) {
	defer mon.Task()(&ctx)(&err)

	user, ok := service.findUser(username)
	if !ok {
		return nil, Error.New("unknown username %q", username)
	}
	current, ok := service.findWorker(user.UserID, workername)
	if !ok {
		return service.addWorker(ctx, user.UserID, workername, difficulty, idleEnabled, idleTime, dates)
	}
	return service.updateWorker(ctx, current, difficulty, idleEnabled, idleTime, dates)
}

// ensureWorker returns the live worker row of (userID, workername),
// creating it with default settings when missing.
func (service *Service) ensureWorker(ctx context.Context, userID int64, workername string, dates HistoryDates) (*Worker, error) {
	if worker, ok := service.findWorker(userID, workername); ok {
		return worker, nil
	}
	return service.addWorker(ctx, userID, workername,
		DifficultyDefault, IdleNotificationEnabledDefault, IdleNotificationTimeDefault, dates)
}

func (service *Service) addWorker(ctx context.Context, userID int64, workername string, difficulty int32, idleEnabled string, idleTime int32, dates HistoryDates) (_ *Worker, err error) {
	if difficulty < DifficultyDefaultMin {
		difficulty = DifficultyDefaultMin
	}
	if difficulty > DifficultyDefaultMax {
		difficulty = DifficultyDefaultMax
	}
	idleEnabled = normalizeIdleEnabled(idleEnabled)
	if idleTime < IdleNotificationTimeMin {
		idleEnabled = IdleNotificationEnabledDefault
		idleTime = IdleNotificationTimeMin
	}
	if idleTime > IdleNotificationTimeMax {
		idleTime = IdleNotificationTimeDefault
	}

	workerid, err := service.db.IDs().Next(ctx, "workerid", 1,
		dates.CreateDate, dates.CreateBy, dates.CreateCode, dates.CreateInet)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	worker := &Worker{
		WorkerID:                workerid,
		UserID:                  userID,
		WorkerName:              workername,
		DifficultyDefault:       difficulty,
		IdleNotificationEnabled: idleEnabled,
		IdleNotificationTime:    idleTime,
		HistoryDates:            dates,
	}
	if err := service.db.Workers().Insert(ctx, worker); err != nil {
		return nil, Error.Wrap(err)
	}
	service.cache.Workers.Insert(worker)
	return worker, nil
}

func (service *Service) updateWorker(ctx context.Context, current *Worker, difficulty int32, idleEnabled string, idleTime int32, dates HistoryDates) (_ *Worker, err error) {
	if difficulty < DifficultyDefaultMin || difficulty > DifficultyDefaultMax {
		difficulty = current.DifficultyDefault
	}
	idleEnabled = normalizeIdleEnabled(idleEnabled)
	if idleTime < IdleNotificationTimeMin || idleTime > IdleNotificationTimeMax {
		idleTime = current.IdleNotificationTime
	}

	if difficulty == current.DifficultyDefault &&
		idleEnabled == current.IdleNotificationEnabled &&
		idleTime == current.IdleNotificationTime {
		return current, nil
	}

	replacement := &Worker{
		WorkerID:                current.WorkerID,
		UserID:                  current.UserID,
		WorkerName:              current.WorkerName,
		DifficultyDefault:       difficulty,
		IdleNotificationEnabled: idleEnabled,
		IdleNotificationTime:    idleTime,
		HistoryDates:            dates,
	}
	if err := service.db.Workers().Update(ctx, replacement); err != nil {
		return nil, Error.Wrap(err)
	}
	service.cache.Workers.Replace(current, replacement)
	return replacement, nil
}

// normalizeIdleEnabled maps any requested value onto the two stored
// flags: values starting with y or Y enable, everything else disables.
func normalizeIdleEnabled(value string) string {
	if strings.HasPrefix(strings.ToLower(value), IdleNotificationEnabled) {
		return IdleNotificationEnabled
	}
	return IdleNotificationEnabledDefault
}

// AddWorkinfo records a block template work unit.
func (service *Service) AddWorkinfo(ctx context.Context, workinfo *Workinfo) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := service.db.Workinfos().Insert(ctx, workinfo); err != nil {
		return Error.Wrap(err)
	}
	service.cache.Workinfos.Insert(workinfo)
	return nil
}

// AddShare records an accepted share in memory. The share must resolve
// its user, its work unit and its worker.
func (service *Service) AddShare(ctx context.Context, username string, share *Share) (err error) {
	defer mon.Task()(&ctx)(&err)

	user, ok := service.findUser(username)
	if !ok {
		return Error.New("unknown username %q", username)
	}
	share.UserID = user.UserID

	if _, ok := service.findWorkinfo(share.WorkinfoID); !ok {
		return Error.New("unknown workinfoid %d", share.WorkinfoID)
	}
	if _, ok := service.findWorker(user.UserID, share.WorkerName); !ok {
		return Error.New("unknown worker %q of %q", share.WorkerName, username)
	}

	service.cache.Shares.Insert(share)
	return nil
}

// AddShareError records a rejected share in memory. Resolution rules
// match AddShare.
func (service *Service) AddShareError(ctx context.Context, username string, shareError *ShareError) (err error) {
	defer mon.Task()(&ctx)(&err)

	user, ok := service.findUser(username)
	if !ok {
		return Error.New("unknown username %q", username)
	}
	shareError.UserID = user.UserID

	if _, ok := service.findWorkinfo(shareError.WorkinfoID); !ok {
		return Error.New("unknown workinfoid %d", shareError.WorkinfoID)
	}
	if _, ok := service.findWorker(user.UserID, shareError.WorkerName); !ok {
		return Error.New("unknown worker %q of %q", shareError.WorkerName, username)
	}

	service.cache.ShareErrors.Insert(shareError)
	return nil
}

// LatestPoolStats returns the most recent snapshot recorded for a pool
// instance.
func (service *Service) LatestPoolStats(poolinstance string) (*PoolStat, bool) {
	probe := &PoolStat{
		PoolInstance: poolinstance,
		SimpleDates:  SimpleDates{CreateDate: fieldtext.DateEOT},
	}
	stat, ok := service.cache.PoolStats.FindBefore(PoolStatsByInstance, probe)
	if !ok || stat.PoolInstance != poolinstance {
		return nil, false
	}
	return stat, true
}

// AddPoolStats records a pool statistics snapshot. The row reaches the
// database only when it is the first stored for its instance or more
// than StatsPer newer than the last stored one; memory-only snapshots
// in between never reset that clock. Every row enters the cache.
func (service *Service) AddPoolStats(ctx context.Context, stat *PoolStat) (stored bool, err error) {
	defer mon.Task()(&ctx)(&err)

	stored = true
	if last, ok := service.lastStoredPoolStats(stat.PoolInstance); ok {
		stored = stat.CreateDate.Sub(last) > StatsPer
	}
	if stored {
		if err := service.db.PoolStats().Insert(ctx, stat); err != nil {
			return false, Error.Wrap(err)
		}
		service.notePoolStatsStored(stat.PoolInstance, stat.CreateDate)
	}
	service.cache.PoolStats.Insert(stat)
	return stored, nil
}

func (service *Service) lastStoredPoolStats(poolinstance string) (time.Time, bool) {
	service.mu.Lock()
	defer service.mu.Unlock()
	last, ok := service.lastStored[poolinstance]
	return last, ok
}

func (service *Service) notePoolStatsStored(poolinstance string, createdate time.Time) {
	service.mu.Lock()
	defer service.mu.Unlock()
	if last, ok := service.lastStored[poolinstance]; ok && createdate.Before(last) {
		return
	}
	service.lastStored[poolinstance] = createdate
}

// NewID creates a named counter starting at lastid.
func (service *Service) NewID(ctx context.Context, idname string, lastid int64, dates ModifyDates) (err error) {
	defer mon.Task()(&ctx)(&err)

	row := &IDControl{
		IDName:      idname,
		LastID:      lastid,
		ModifyDates: dates,
	}
	return Error.Wrap(service.db.IDs().Insert(ctx, row))
}

// PaymentsFor returns the payment rows of username ordered by pay date.
// The second return is false when the username has no live account.
func (service *Service) PaymentsFor(ctx context.Context, username string) (_ []*Payment, ok bool) {
	defer mon.Task()(&ctx)(nil)

	user, ok := service.findUser(username)
	if !ok {
		return nil, false
	}

	var rows []*Payment
	probe := &Payment{UserID: user.UserID}
	service.cache.Payments.AscendAfter(PaymentsByUser, probe, func(payment *Payment) bool {
		if payment.UserID != user.UserID {
			return false
		}
		rows = append(rows, payment)
		return true
	})
	return rows, true
}

// Fill loads the live row set of every entity from the database in
// dependency order. Shares and share errors have no table to load from
// and workinfo is deliberately not read back.
func (service *Service) Fill(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := service.fillUsers(ctx); err != nil {
		return err
	}
	if err := service.fillWorkers(ctx); err != nil {
		return err
	}
	if err := service.fillPayments(ctx); err != nil {
		return err
	}
	if err := service.fillAuths(ctx); err != nil {
		return err
	}
	return service.fillPoolStats(ctx)
}

// ReloadUsers purges the users tables and refills them from the
// database.
func (service *Service) ReloadUsers(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	service.cache.Users.Purge()
	return service.fillUsers(ctx)
}

// ReloadWorkers purges the workers table and refills it from the
// database.
func (service *Service) ReloadWorkers(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	service.cache.Workers.Purge()
	return service.fillWorkers(ctx)
}

// ReloadPayments purges the payments table and refills it from the
// database.
func (service *Service) ReloadPayments(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	service.cache.Payments.Purge()
	return service.fillPayments(ctx)
}

// ReloadAuths purges the auths table and refills it from the database.
func (service *Service) ReloadAuths(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	service.cache.Auths.Purge()
	return service.fillAuths(ctx)
}

// ReloadPoolStats purges the pool statistics table and refills it from
// the database.
func (service *Service) ReloadPoolStats(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	service.cache.PoolStats.Purge()
	service.mu.Lock()
	service.lastStored = make(map[string]time.Time)
	service.mu.Unlock()
	return service.fillPoolStats(ctx)
}

// ReloadWorkinfos is a no-op: work units are never expired, so the
// in-memory set can only grow through ingest.
func (service *Service) ReloadWorkinfos(ctx context.Context) error {
	return nil
}

func (service *Service) fillUsers(ctx context.Context) error {
	rows, err := service.db.Users().SelectLive(ctx)
	if err != nil {
		return Error.Wrap(err)
	}
	for _, row := range rows {
		service.cache.Users.Insert(row)
	}
	service.log.Debug("Loaded users.", zap.Int("rows", len(rows)))
	return nil
}

func (service *Service) fillWorkers(ctx context.Context) error {
	rows, err := service.db.Workers().SelectLive(ctx)
	if err != nil {
		return Error.Wrap(err)
	}
	for _, row := range rows {
		service.cache.Workers.Insert(row)
	}
	service.log.Debug("Loaded workers.", zap.Int("rows", len(rows)))
	return nil
}

func (service *Service) fillPayments(ctx context.Context) error {
	rows, err := service.db.Payments().SelectLive(ctx)
	if err != nil {
		return Error.Wrap(err)
	}
	for _, row := range rows {
		service.cache.Payments.Insert(row)
	}
	service.log.Debug("Loaded payments.", zap.Int("rows", len(rows)))
	return nil
}

func (service *Service) fillAuths(ctx context.Context) error {
	rows, err := service.db.Auths().SelectLive(ctx)
	if err != nil {
		return Error.Wrap(err)
	}
	for _, row := range rows {
		service.cache.Auths.Insert(row)
	}
	service.log.Debug("Loaded auths.", zap.Int("rows", len(rows)))
	return nil
}

func (service *Service) fillPoolStats(ctx context.Context) error {
	rows, err := service.db.PoolStats().SelectAll(ctx)
	if err != nil {
		return Error.Wrap(err)
	}
	for _, row := range rows {
		service.cache.PoolStats.Insert(row)
		service.notePoolStatsStored(row.PoolInstance, row.CreateDate)
	}
	service.log.Debug("Loaded poolstats.", zap.Int("rows", len(rows)))
	return nil
}

func (service *Service) findUser(username string) (*User, bool) {
	probe := &User{
		Username:     username,
		HistoryDates: HistoryDates{ExpiryDate: fieldtext.DefaultExpiry},
	}
	return service.cache.Users.Find(UsersByName, probe)
}

func (service *Service) findWorker(userID int64, workername string) (*Worker, bool) {
	probe := &Worker{
		UserID:       userID,
		WorkerName:   workername,
		HistoryDates: HistoryDates{ExpiryDate: fieldtext.DefaultExpiry},
	}
	return service.cache.Workers.Find(WorkersByUser, probe)
}

func (service *Service) findWorkinfo(workinfoID int64) (*Workinfo, bool) {
	probe := &Workinfo{
		WorkinfoID:   workinfoID,
		HistoryDates: HistoryDates{ExpiryDate: fieldtext.DefaultExpiry},
	}
	return service.cache.Workinfos.Find(WorkinfosByID, probe)
}
