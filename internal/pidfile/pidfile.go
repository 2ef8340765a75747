// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package pidfile guards against two daemon instances sharing one
// working directory.
package pidfile

import (
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Error is the pidfile error class.
var Error = errs.Class("pidfile")

// Write records the current process id at path. When the file already
// names a running process the call fails, unless killOld is set, in
// which case the old process is killed and the file taken over.
func Write(log *zap.Logger, path string, killOld bool) error {
	if oldPid, ok := alivePid(path); ok {
		if !killOld {
			return Error.New("%s: process %d is still running", path, oldPid)
		}
		log.Warn("Killing old instance.", zap.Int("pid", oldPid))
		if err := syscall.Kill(oldPid, syscall.SIGKILL); err != nil {
			return Error.New("%s: killing old process %d: %v", path, oldPid, err)
		}
	}
	pid := strconv.Itoa(os.Getpid()) + "\n"
	return Error.Wrap(os.WriteFile(path, []byte(pid), 0600))
}

// Remove deletes the pid file. A missing file is not an error: teardown
// paths may run more than once.
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return Error.Wrap(err)
	}
	return nil
}

// alivePid reads the pid recorded at path and reports whether that
// process still exists. Unreadable or stale content counts as dead.
func alivePid(path string) (pid int, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil || !exists {
		return 0, false
	}
	return pid, true
}
