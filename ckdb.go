// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package ckdb serves the mining pool's accounting protocol over a
// UNIX-domain socket.
//
// One connection carries one request: "id.cmd[.data]" with trailing
// newlines stripped, answered with "id.<unix seconds>.<result>" and a
// close. The data grammar and the field map live in package transfer;
// the business rules live in package accounting. This package owns the
// listener, the command table and the reply formats.
package ckdb

import (
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"ckpool.org/ckdb/ckdbdb"
)

var mon = monkit.Package()

// Error is the default ckdb errs class.
var Error = errs.Class("ckdb")

// Config is the daemon configuration.
type Config struct {
	Name      string `user:"true" help:"instance name" default:"ckdb"`
	SocketDir string `user:"true" help:"directory holding the listener socket and pid file" default:"/opt/ckdb"`
	KillOld   bool   `help:"kill a running instance that still holds the pid file" default:"false"`

	Database ckdbdb.Config
}
