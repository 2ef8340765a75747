// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package ckdbdb implements accounting.DB against postgres.
package ckdbdb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"ckpool.org/ckdb/accounting"
	"ckpool.org/ckdb/private/dbutil/pgutil"
)

// Error is the default ckdbdb errs class.
var Error = errs.Class("ckdbdb")

// Config is the postgres connection configuration.
type Config struct {
	Host     string `user:"true" help:"postgres server address" default:"127.0.0.1"`
	Name     string `user:"true" help:"database name" default:"ckdb"`
	User     string `user:"true" help:"database user" default:"postgres"`
	Password string `user:"true" help:"database password" default:""`
	SSLMode  string `user:"true" help:"postgres sslmode setting" default:"disable"`
}

// ConnString renders the libpq keyword/value connection string.
func (config Config) ConnString() string {
	// timezone pins the session rendering of timestamptz columns so that
	// fieldtext.ParseTimeval always sees a +NN suffix.
	parts := []string{
		"host=" + config.Host,
		"dbname=" + config.Name,
		"user=" + config.User,
		"sslmode=" + config.SSLMode,
		"application_name=ckdb",
		"timezone=UTC",
	}
	if config.Password != "" {
		parts = append(parts, "password="+config.Password)
	}
	return strings.Join(parts, " ")
}

// DB is the postgres master database.
//
// architecture: Master Database
type DB struct {
	log *zap.Logger
	db  *sql.DB
}

// Open connects to the configured database and verifies the connection.
func Open(ctx context.Context, log *zap.Logger, config Config) (*DB, error) {
	db, err := pgutil.Open(ctx, config.ConnString())
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &DB{log: log, db: db}, nil
}

// Users is a getter for the Users repository.
func (db *DB) Users() accounting.Users { return &usersRepo{db.db} }

// Workers is a getter for the Workers repository.
func (db *DB) Workers() accounting.Workers { return &workersRepo{db.db} }

// Payments is a getter for the Payments repository.
func (db *DB) Payments() accounting.Payments { return &paymentsRepo{db.db} }

// Workinfos is a getter for the Workinfos repository.
func (db *DB) Workinfos() accounting.Workinfos { return &workinfosRepo{db.db} }

// Auths is a getter for the Auths repository.
func (db *DB) Auths() accounting.Auths { return &authsRepo{db.db} }

// PoolStats is a getter for the PoolStats repository.
func (db *DB) PoolStats() accounting.PoolStats { return &poolStatsRepo{db.db} }

// IDs is a getter for the IDs repository.
func (db *DB) IDs() accounting.IDs { return &idsRepo{db.db} }

// CreateTables applies any missing migration steps.
func (db *DB) CreateTables(ctx context.Context) error {
	migration := db.Migration()
	return migration.Run(ctx, db.log.Named("migrate"))
}

// CheckVersion verifies that the schema matches what this build expects.
func (db *DB) CheckVersion(ctx context.Context) error {
	migration := db.Migration()
	return migration.ValidateVersions(ctx, db.log.Named("migrate"))
}

// Close closes the database.
func (db *DB) Close() error {
	return Error.Wrap(db.db.Close())
}
