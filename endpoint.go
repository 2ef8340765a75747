// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ckpool.org/ckdb/accounting"
	"ckpool.org/ckdb/fieldtext"
	"ckpool.org/ckdb/transfer"
)

// Access classes recorded on the command table. They are advisory: the
// socket directory permissions are the actual barrier.
const (
	AccessPool   = "p"
	AccessSystem = "s"
	AccessWeb    = "w"
)

// Audit values stamped on rows created by the listener. Requests may
// override the create fields through the transfer map.
const (
	auditBy   = "code"
	auditCode = "listener"
	auditInet = "127.0.0.1"
)

type handlerFunc func(ctx context.Context, now time.Time, fields *transfer.Map) string

type command struct {
	verb   string
	access string
	handle handlerFunc
}

// Endpoint dispatches parsed requests to their handlers.
//
// architecture: Endpoint
type Endpoint struct {
	log      *zap.Logger
	service  *accounting.Service
	commands []command
}

// NewEndpoint creates an endpoint around the accounting service.
func NewEndpoint(log *zap.Logger, service *accounting.Service) *Endpoint {
	endpoint := &Endpoint{
		log:     log,
		service: service,
	}
	endpoint.commands = []command{
		{"shutdown", AccessSystem, nil},
		{"ping", AccessSystem + AccessWeb, nil},
		{"sharelog", AccessPool, endpoint.sharelog},
		{"authorise", AccessPool, endpoint.authorise},
		{"adduser", AccessWeb, endpoint.adduser},
		{"chkpass", AccessWeb, endpoint.chkpass},
		{"poolstats", AccessWeb, endpoint.poolstats},
		{"newid", AccessSystem, endpoint.newid},
		{"payments", AccessWeb, endpoint.payments},
	}
	return endpoint
}

// Dispatch parses one message and runs its handler. The returned reply
// is complete, "id.<unix seconds>.<result>"; shutdown reports that the
// accept loop should terminate after sending it.
func (endpoint *Endpoint) Dispatch(ctx context.Context, now time.Time, msg string) (reply string, shutdown bool) {
	defer mon.Task()(&ctx)(nil)

	req, err := transfer.Parse(msg)
	if err != nil {
		endpoint.log.Info("Received invalid message.", zap.String("message", msg))
		return endpoint.wrap(req.ID, now, "?"), false
	}

	switch strings.ToLower(req.Cmd) {
	case "shutdown":
		endpoint.log.Warn("Received shutdown message.")
		return endpoint.wrap(req.ID, now, "exiting"), true
	case "ping":
		endpoint.log.Debug("Received ping request.")
		return endpoint.wrap(req.ID, now, "pong"), false
	}

	for _, cmd := range endpoint.commands {
		if cmd.handle != nil && strings.EqualFold(cmd.verb, req.Cmd) {
			return endpoint.wrap(req.ID, now, cmd.handle(ctx, now, req.Fields)), false
		}
	}

	endpoint.log.Info("Received unknown command.", zap.String("cmd", req.Cmd))
	return endpoint.wrap(req.ID, now, "?"), false
}

func (endpoint *Endpoint) wrap(id string, now time.Time, result string) string {
	return fmt.Sprintf("%s.%d.%s", id, now.Unix(), result)
}

func (endpoint *Endpoint) adduser(ctx context.Context, now time.Time, fields *transfer.Map) string {
	username, ferr := fields.Require("username", 3, transfer.UserPattern)
	if ferr != nil {
		return ferr.Reply()
	}
	emailaddress, ferr := fields.Require("emailaddress", 7, transfer.MailPattern)
	if ferr != nil {
		return ferr.Reply()
	}
	passwordhash, ferr := fields.Require("passwordhash", 64, transfer.HexPattern)
	if ferr != nil {
		return ferr.Reply()
	}

	dates := accounting.NewHistoryDates(now, auditBy, auditCode, auditInet)
	if _, err := endpoint.service.AddUser(ctx, username, emailaddress, passwordhash, dates); err != nil {
		endpoint.log.Error("Failed to add user.", zap.String("username", username), zap.Error(err))
		return "failed.DBE"
	}
	return "added." + username
}

func (endpoint *Endpoint) chkpass(ctx context.Context, now time.Time, fields *transfer.Map) string {
	username, ferr := fields.Require("username", 3, transfer.UserPattern)
	if ferr != nil {
		return ferr.Reply()
	}
	passwordhash, ferr := fields.Require("passwordhash", 64, transfer.HexPattern)
	if ferr != nil {
		return ferr.Reply()
	}

	if !endpoint.service.CheckPassword(ctx, username, passwordhash) {
		return "bad"
	}
	endpoint.log.Debug("Login.", zap.String("username", username))
	return "ok"
}

func (endpoint *Endpoint) authorise(ctx context.Context, now time.Time, fields *transfer.Map) string {
	method, ferr := fields.Require("method", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	if !strings.EqualFold(method, "authorise") {
		return "bad.method"
	}

	username, ferr := fields.Require("username", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	workername, ferr := fields.Require("workername", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	clientid, reply := requireInt32(fields, "clientid")
	if reply != "" {
		return reply
	}
	enonce1, ferr := fields.Require("enonce1", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	useragent, ferr := fields.Require("useragent", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}

	dates, reply := historyDates(fields, now)
	if reply != "" {
		return reply
	}
	secuserid, err := endpoint.service.Authorise(ctx, username, workername, clientid, enonce1, useragent, dates)
	if err != nil {
		endpoint.log.Error("Failed to authorise.", zap.String("username", username), zap.Error(err))
		return "bad.DBE"
	}
	return "added." + secuserid
}

func (endpoint *Endpoint) sharelog(ctx context.Context, now time.Time, fields *transfer.Map) string {
	method, ferr := fields.Require("method", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}

	switch strings.ToLower(method) {
	case "workinfo":
		return endpoint.logWorkinfo(ctx, now, fields)
	case "shares":
		return endpoint.logShare(ctx, now, fields)
	case "shareerror":
		return endpoint.logShareError(ctx, now, fields)
	}
	return "bad.method"
}

func (endpoint *Endpoint) logWorkinfo(ctx context.Context, now time.Time, fields *transfer.Map) string {
	workinfoid, reply := requireInt64(fields, "workinfoid")
	if reply != "" {
		return reply
	}
	var values [8]string
	for i, name := range [...]string{
		"poolinstance", "transactiontree", "merklehash", "prevhash",
		"coinbase1", "coinbase2", "version", "bits",
	} {
		value, ferr := fields.Require(name, 1, "")
		if ferr != nil {
			return ferr.Reply()
		}
		values[i] = value
	}
	ntime, ferr := fields.Require("ntime", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	reward, reply := requireInt64(fields, "reward")
	if reply != "" {
		return reply
	}

	dates, reply := historyDates(fields, now)
	if reply != "" {
		return reply
	}
	workinfo := &accounting.Workinfo{
		WorkinfoID:      workinfoid,
		PoolInstance:    values[0],
		TransactionTree: values[1],
		MerkleHash:      values[2],
		PrevHash:        values[3],
		Coinbase1:       values[4],
		Coinbase2:       values[5],
		Version:         values[6],
		Bits:            values[7],
		NTime:           ntime,
		Reward:          reward,
		HistoryDates:    dates,
	}
	if err := endpoint.service.AddWorkinfo(ctx, workinfo); err != nil {
		endpoint.log.Error("Failed to add workinfo.", zap.Int64("workinfoid", workinfoid), zap.Error(err))
		return "bad.DBE"
	}
	return "added." + fieldtext.FormatInt64(workinfoid)
}

func (endpoint *Endpoint) logShare(ctx context.Context, now time.Time, fields *transfer.Map) string {
	workinfoid, reply := requireInt64(fields, "workinfoid")
	if reply != "" {
		return reply
	}
	username, ferr := fields.Require("username", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	workername, ferr := fields.Require("workername", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	clientid, reply := requireInt32(fields, "clientid")
	if reply != "" {
		return reply
	}
	enonce1, ferr := fields.Require("enonce1", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	nonce2, ferr := fields.Require("nonce2", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	nonce, ferr := fields.Require("nonce", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	diff, reply := requireFloat64(fields, "diff")
	if reply != "" {
		return reply
	}
	sdiff, reply := requireFloat64(fields, "sdiff")
	if reply != "" {
		return reply
	}
	secondaryuserid, ferr := fields.Require("secondaryuserid", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}

	dates, reply := historyDates(fields, now)
	if reply != "" {
		return reply
	}
	share := &accounting.Share{
		WorkinfoID:      workinfoid,
		WorkerName:      workername,
		ClientID:        clientid,
		Enonce1:         enonce1,
		Nonce2:          nonce2,
		Nonce:           nonce,
		Diff:            diff,
		SDiff:           sdiff,
		SecondaryUserID: secondaryuserid,
		HistoryDates:    dates,
	}
	if err := endpoint.service.AddShare(ctx, username, share); err != nil {
		endpoint.log.Info("Dropped share.", zap.String("username", username), zap.Error(err))
		return "bad.DATA"
	}
	return "added." + nonce
}

func (endpoint *Endpoint) logShareError(ctx context.Context, now time.Time, fields *transfer.Map) string {
	workinfoid, reply := requireInt64(fields, "workinfoid")
	if reply != "" {
		return reply
	}
	username, ferr := fields.Require("username", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	workername, ferr := fields.Require("workername", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	clientid, reply := requireInt32(fields, "clientid")
	if reply != "" {
		return reply
	}
	errn, reply := requireInt32(fields, "errno")
	if reply != "" {
		return reply
	}
	errdesc, ferr := fields.Require("error", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	secondaryuserid, ferr := fields.Require("secondaryuserid", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}

	dates, reply := historyDates(fields, now)
	if reply != "" {
		return reply
	}
	shareError := &accounting.ShareError{
		WorkinfoID:      workinfoid,
		WorkerName:      workername,
		ClientID:        clientid,
		Errn:            errn,
		Error:           errdesc,
		SecondaryUserID: secondaryuserid,
		HistoryDates:    dates,
	}
	if err := endpoint.service.AddShareError(ctx, username, shareError); err != nil {
		endpoint.log.Info("Dropped share error.", zap.String("username", username), zap.Error(err))
		return "bad.DATA"
	}
	return "added." + username
}

func (endpoint *Endpoint) poolstats(ctx context.Context, now time.Time, fields *transfer.Map) string {
	poolinstance, ferr := fields.Require("poolinstance", 1, "")
	if ferr != nil {
		return ferr.Reply()
	}
	users, reply := requireInt32(fields, "users")
	if reply != "" {
		return reply
	}
	workers, reply := requireInt32(fields, "workers")
	if reply != "" {
		return reply
	}
	var hashrates [4]float64
	for i, name := range [...]string{"hashrate", "hashrate5m", "hashrate1hr", "hashrate24hr"} {
		value, reply := requireFloat64(fields, name)
		if reply != "" {
			return reply
		}
		hashrates[i] = value
	}

	// The first snapshot of an instance may omit createdate; after that
	// the pool must send it so the storage throttle has a reference.
	if _, ok := endpoint.service.LatestPoolStats(poolinstance); ok {
		if _, ferr := fields.Require("createdate", 10, ""); ferr != nil {
			return ferr.Reply()
		}
	}

	var elapsed int64
	if value, ok := fields.Optional("elapsed", 1, transfer.IntPattern); ok {
		parsed, err := fieldtext.ParseInt64("elapsed", value)
		if err != nil {
			return transfer.InvalidField("elapsed").Reply()
		}
		elapsed = parsed
	}

	dates, reply := simpleDates(fields, now)
	if reply != "" {
		return reply
	}
	stat := &accounting.PoolStat{
		PoolInstance: poolinstance,
		Elapsed:      elapsed,
		Users:        users,
		Workers:      workers,
		Hashrate:     hashrates[0],
		Hashrate5m:   hashrates[1],
		Hashrate1hr:  hashrates[2],
		Hashrate24hr: hashrates[3],
		SimpleDates:  dates,
	}
	if _, err := endpoint.service.AddPoolStats(ctx, stat); err != nil {
		endpoint.log.Error("Failed to add poolstats.", zap.String("poolinstance", poolinstance), zap.Error(err))
		return "bad.DBE"
	}
	return "added.ok"
}

func (endpoint *Endpoint) newid(ctx context.Context, now time.Time, fields *transfer.Map) string {
	idname, ferr := fields.Require("idname", 3, transfer.IDPattern)
	if ferr != nil {
		return ferr.Reply()
	}
	value, ferr := fields.Require("idvalue", 1, transfer.IntPattern)
	if ferr != nil {
		return ferr.Reply()
	}
	idvalue, err := fieldtext.ParseInt64("idvalue", value)
	if err != nil {
		return transfer.InvalidField("idvalue").Reply()
	}

	dates := accounting.NewModifyDates(now, auditBy, auditCode, auditInet)
	if err := endpoint.service.NewID(ctx, idname, idvalue, dates); err != nil {
		endpoint.log.Error("Failed to add id counter.", zap.String("idname", idname), zap.Error(err))
		return "failed.DBE"
	}
	return "added." + idname
}

func (endpoint *Endpoint) payments(ctx context.Context, now time.Time, fields *transfer.Map) string {
	username, ferr := fields.Require("username", 3, transfer.UserPattern)
	if ferr != nil {
		return ferr.Reply()
	}

	rows, ok := endpoint.service.PaymentsFor(ctx, username)
	if !ok {
		return "bad"
	}

	var b strings.Builder
	b.WriteString("ok.")
	for i, payment := range rows {
		fmt.Fprintf(&b, "paydate%d=%s%s", i, fieldtext.FormatTimeval(payment.PayDate), transfer.FieldSep)
		fmt.Fprintf(&b, "payaddress%d=%s%s", i, payment.PayAddress, transfer.FieldSep)
		fmt.Fprintf(&b, "amount%d=%s%s", i, fieldtext.FormatInt64(payment.Amount), transfer.FieldSep)
	}
	fmt.Fprintf(&b, "rows=%d", len(rows))
	return b.String()
}

// historyDates builds the audit bundle of a new live row, honoring the
// createdate/createby/createcode/createinet overrides of the request.
func historyDates(fields *transfer.Map, now time.Time) (accounting.HistoryDates, string) {
	dates := accounting.NewHistoryDates(now, auditBy, auditCode, auditInet)
	simple, reply := simpleDates(fields, now)
	if reply != "" {
		return dates, reply
	}
	dates.CreateDate = simple.CreateDate
	dates.CreateBy = simple.CreateBy
	dates.CreateCode = simple.CreateCode
	dates.CreateInet = simple.CreateInet
	return dates, ""
}

func simpleDates(fields *transfer.Map, now time.Time) (accounting.SimpleDates, string) {
	dates := accounting.NewSimpleDates(now, auditBy, auditCode, auditInet)
	if value, ok := fields.Optional("createdate", 10, ""); ok {
		parsed, err := fieldtext.ParseSecMicros("createdate", value)
		if err != nil {
			return dates, transfer.InvalidField("createdate").Reply()
		}
		dates.CreateDate = parsed
	}
	if value, ok := fields.Optional("createby", 1, ""); ok {
		dates.CreateBy = value
	}
	if value, ok := fields.Optional("createcode", 1, ""); ok {
		dates.CreateCode = value
	}
	if value, ok := fields.Optional("createinet", 1, ""); ok {
		dates.CreateInet = value
	}
	return dates, ""
}

func requireInt64(fields *transfer.Map, name string) (int64, string) {
	value, ferr := fields.Require(name, 1, "")
	if ferr != nil {
		return 0, ferr.Reply()
	}
	parsed, err := fieldtext.ParseInt64(name, value)
	if err != nil {
		return 0, transfer.InvalidField(name).Reply()
	}
	return parsed, ""
}

func requireInt32(fields *transfer.Map, name string) (int32, string) {
	value, ferr := fields.Require(name, 1, "")
	if ferr != nil {
		return 0, ferr.Reply()
	}
	parsed, err := fieldtext.ParseInt32(name, value)
	if err != nil {
		return 0, transfer.InvalidField(name).Reply()
	}
	return parsed, ""
}

func requireFloat64(fields *transfer.Map, name string) (float64, string) {
	value, ferr := fields.Require(name, 1, "")
	if ferr != nil {
		return 0, ferr.Reply()
	}
	parsed, err := fieldtext.ParseFloat64(name, value)
	if err != nil {
		return 0, transfer.InvalidField(name).Reply()
	}
	return parsed, ""
}
