// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdb

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ckpool.org/ckdb/fieldtext"
	"ckpool.org/ckdb/internal/pidfile"
)

// Peer owns the listener socket and the pid file.
//
// architecture: Peer
type Peer struct {
	Log      *zap.Logger
	Endpoint *Endpoint

	Listener net.Listener

	socketPath string
	pidPath    string
}

// New claims the socket directory and opens the listener socket.
func New(log *zap.Logger, endpoint *Endpoint, config Config) (*Peer, error) {
	if err := os.MkdirAll(config.SocketDir, 0700); err != nil {
		return nil, Error.New("failed to make directory %s: %v", config.SocketDir, err)
	}

	pidPath := filepath.Join(config.SocketDir, "main.pid")
	if err := pidfile.Write(log, pidPath, config.KillOld); err != nil {
		return nil, Error.Wrap(err)
	}

	// A killed instance leaves its socket file behind.
	socketPath := filepath.Join(config.SocketDir, "listener")
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, errs.Combine(Error.Wrap(err), pidfile.Remove(pidPath))
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, errs.Combine(Error.Wrap(err), pidfile.Remove(pidPath))
	}

	return &Peer{
		Log:        log,
		Endpoint:   endpoint,
		Listener:   listener,
		socketPath: socketPath,
		pidPath:    pidPath,
	}, nil
}

// Run serves requests until the context is cancelled or a shutdown
// message arrives.
func (peer *Peer) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	var group errgroup.Group

	group.Go(func() error {
		<-ctx.Done()
		if err := peer.Listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			return Error.Wrap(err)
		}
		return nil
	})
	group.Go(func() error {
		defer cancel()
		peer.Log.Info("Listener started.", zap.String("socket", peer.socketPath))
		return peer.serve(ctx)
	})
	return group.Wait()
}

// serve accepts one connection at a time; every table is lock-guarded,
// so requests could be moved onto a worker pool without changing the
// handlers.
func (peer *Peer) serve(ctx context.Context) error {
	for {
		conn, err := peer.Listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return Error.Wrap(err)
		}
		if peer.handle(ctx, conn) {
			peer.Log.Warn("Shutting down listener.")
			return nil
		}
	}
}

// handle serves one connection: the whole payload is the message, one
// reply is written back. It reports whether the message asked for
// shutdown.
func (peer *Peer) handle(ctx context.Context, conn net.Conn) (shutdown bool) {
	defer func() { _ = conn.Close() }()

	data, err := io.ReadAll(conn)
	now := fieldtext.Now()
	if err != nil {
		peer.Log.Warn("Failed to read message.", zap.Error(err))
		return false
	}
	msg := strings.TrimRight(string(data), "\n\r")
	if msg == "" {
		// An empty message gets no reply.
		peer.Log.Warn("Empty message.")
		return false
	}

	reply, shutdown := peer.Endpoint.Dispatch(ctx, now, msg)
	if _, err := conn.Write([]byte(reply)); err != nil {
		peer.Log.Warn("Failed to send reply.", zap.Error(err))
	}
	return shutdown
}

// Addr returns the path of the listener socket.
func (peer *Peer) Addr() string { return peer.socketPath }

// Close releases the socket and the pid file.
func (peer *Peer) Close() error {
	err := peer.Listener.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	if removeErr := os.Remove(peer.socketPath); removeErr != nil && !os.IsNotExist(removeErr) {
		err = errs.Combine(err, removeErr)
	}
	return errs.Combine(Error.Wrap(err), pidfile.Remove(peer.pidPath))
}
