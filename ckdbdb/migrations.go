// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdbdb

import (
	"ckpool.org/ckdb/private/migrate"
)

// Migration returns steps needed for migrating the database.
func (db *DB) Migration() *migrate.Migration {
	return &migrate.Migration{
		Table: "versions",
		Steps: []*migrate.Step{
			{
				DB:          db.db,
				Description: "Initial setup",
				Version:     0,
				Action: migrate.SQL{
					`CREATE TABLE users (
						userid bigint NOT NULL,
						username varchar(256) NOT NULL,
						emailaddress varchar(256) NOT NULL,
						joineddate timestamptz NOT NULL,
						passwordhash varchar(256) NOT NULL,
						secondaryuserid varchar(64) NOT NULL,
						createdate timestamptz NOT NULL,
						createby varchar(64) NOT NULL,
						createcode varchar(128) NOT NULL,
						createinet varchar(128) NOT NULL,
						expirydate timestamptz NOT NULL DEFAULT '6666-06-06 06:06:06+00',
						PRIMARY KEY (userid, expirydate)
					)`,
					`CREATE UNIQUE INDEX usersusername ON users (username, expirydate)`,
					`CREATE TABLE workers (
						workerid bigint NOT NULL,
						userid bigint NOT NULL,
						workername varchar(256) NOT NULL,
						difficultydefault integer NOT NULL,
						idlenotificationenabled varchar(1) NOT NULL,
						idlenotificationtime integer NOT NULL,
						createdate timestamptz NOT NULL,
						createby varchar(64) NOT NULL,
						createcode varchar(128) NOT NULL,
						createinet varchar(128) NOT NULL,
						expirydate timestamptz NOT NULL DEFAULT '6666-06-06 06:06:06+00',
						PRIMARY KEY (workerid, expirydate)
					)`,
					`CREATE UNIQUE INDEX workersuserid ON workers (userid, workername, expirydate)`,
					`CREATE TABLE payments (
						paymentid bigint NOT NULL,
						userid bigint NOT NULL,
						paydate timestamptz NOT NULL,
						payaddress varchar(256) NOT NULL,
						originaltxn varchar(256),
						amount bigint NOT NULL,
						committxn varchar(256),
						commitblockhash varchar(256),
						createdate timestamptz NOT NULL,
						createby varchar(64) NOT NULL,
						createcode varchar(128) NOT NULL,
						createinet varchar(128) NOT NULL,
						expirydate timestamptz NOT NULL DEFAULT '6666-06-06 06:06:06+00',
						PRIMARY KEY (paymentid, expirydate)
					)`,
					`CREATE INDEX paymentsuserid ON payments (userid, paydate)`,
					`CREATE TABLE workinfo (
						workinfoid bigint NOT NULL,
						poolinstance varchar(256) NOT NULL,
						transactiontree text,
						merklehash text,
						prevhash varchar(256) NOT NULL,
						coinbase1 varchar(256) NOT NULL,
						coinbase2 varchar(256) NOT NULL,
						version varchar(64) NOT NULL,
						bits varchar(64) NOT NULL,
						ntime varchar(64) NOT NULL,
						reward bigint NOT NULL,
						createdate timestamptz NOT NULL,
						createby varchar(64) NOT NULL,
						createcode varchar(128) NOT NULL,
						createinet varchar(128) NOT NULL,
						expirydate timestamptz NOT NULL DEFAULT '6666-06-06 06:06:06+00',
						PRIMARY KEY (workinfoid, expirydate)
					)`,
					`CREATE TABLE auths (
						authid bigint NOT NULL,
						userid bigint NOT NULL,
						workername varchar(256) NOT NULL,
						clientid integer NOT NULL,
						enonce1 varchar(64) NOT NULL,
						useragent varchar(256) NOT NULL,
						createdate timestamptz NOT NULL,
						createby varchar(64) NOT NULL,
						createcode varchar(128) NOT NULL,
						createinet varchar(128) NOT NULL,
						expirydate timestamptz NOT NULL DEFAULT '6666-06-06 06:06:06+00',
						PRIMARY KEY (authid, expirydate)
					)`,
					`CREATE TABLE poolstats (
						poolinstance varchar(256) NOT NULL,
						elapsed bigint NOT NULL,
						users integer NOT NULL,
						workers integer NOT NULL,
						hashrate bigint NOT NULL,
						hashrate5m bigint NOT NULL,
						hashrate1hr bigint NOT NULL,
						hashrate24hr bigint NOT NULL,
						createdate timestamptz NOT NULL,
						createby varchar(64) NOT NULL,
						createcode varchar(128) NOT NULL,
						createinet varchar(128) NOT NULL,
						PRIMARY KEY (poolinstance, createdate)
					)`,
					`CREATE TABLE idcontrol (
						idname varchar(64) NOT NULL,
						lastid bigint NOT NULL,
						createdate timestamptz NOT NULL,
						createby varchar(64) NOT NULL,
						createcode varchar(128) NOT NULL,
						createinet varchar(128) NOT NULL,
						modifydate timestamptz NOT NULL,
						modifyby varchar(64) NOT NULL,
						modifycode varchar(128) NOT NULL,
						modifyinet varchar(128) NOT NULL,
						PRIMARY KEY (idname)
					)`,
				},
			},
			{
				DB:          db.db,
				Description: "Seed the userid, workerid and authid counters",
				Version:     1,
				Action: migrate.SQL{
					`INSERT INTO idcontrol
						(idname, lastid,
						 createdate, createby, createcode, createinet,
						 modifydate, modifyby, modifycode, modifyinet)
					VALUES
						('userid', 0, now(), 'ckdb', 'migration', '127.0.0.1', to_timestamp(0), '', '', ''),
						('workerid', 0, now(), 'ckdb', 'migration', '127.0.0.1', to_timestamp(0), '', '', ''),
						('authid', 0, now(), 'ckdb', 'migration', '127.0.0.1', to_timestamp(0), '', '', '')`,
				},
			},
		},
	}
}
