// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdbdb

import (
	"context"
	"database/sql"

	"github.com/zeebo/errs"

	"ckpool.org/ckdb/accounting"
	"ckpool.org/ckdb/fieldtext"
)

type poolStatsRepo struct{ db *sql.DB }

func (repo *poolStatsRepo) Insert(ctx context.Context, stat *accounting.PoolStat) (err error) {
	defer mon.Task()(&ctx)(&err)

	// Hashrate columns are bigint in the schema; the fraction is noise
	// at pool scale and is kept in memory only.
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO poolstats
			(poolinstance, elapsed, users, workers,
			 hashrate, hashrate5m, hashrate1hr, hashrate24hr,
			 createdate, createby, createcode, createinet)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		stat.PoolInstance, stat.Elapsed, stat.Users, stat.Workers,
		int64(stat.Hashrate), int64(stat.Hashrate5m), int64(stat.Hashrate1hr), int64(stat.Hashrate24hr),
		timevalParam(stat.CreateDate), stat.CreateBy, stat.CreateCode, stat.CreateInet,
	)
	return Error.Wrap(err)
}

func (repo *poolStatsRepo) SelectAll(ctx context.Context) (_ []*accounting.PoolStat, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.QueryContext(ctx, `
		SELECT poolinstance, elapsed, users, workers,
		       hashrate, hashrate5m, hashrate1hr, hashrate24hr,
		       createdate::text, createby, createcode, createinet
		FROM poolstats
		ORDER BY poolinstance, createdate`,
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var stats []*accounting.PoolStat
	for rows.Next() {
		var stat accounting.PoolStat
		var hashrate, hashrate5m, hashrate1hr, hashrate24hr int64
		var created string
		err := rows.Scan(
			&stat.PoolInstance, &stat.Elapsed, &stat.Users, &stat.Workers,
			&hashrate, &hashrate5m, &hashrate1hr, &hashrate24hr,
			&created, &stat.CreateBy, &stat.CreateCode, &stat.CreateInet)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if stat.PoolInstance, err = fieldtext.ParseString("poolinstance", stat.PoolInstance, fieldtext.TextBig); err != nil {
			return nil, Error.Wrap(err)
		}
		if stat.CreateDate, err = fieldtext.ParseTimeval("createdate", created); err != nil {
			return nil, Error.Wrap(err)
		}
		stat.Hashrate = float64(hashrate)
		stat.Hashrate5m = float64(hashrate5m)
		stat.Hashrate1hr = float64(hashrate1hr)
		stat.Hashrate24hr = float64(hashrate24hr)
		stats = append(stats, &stat)
	}
	return stats, Error.Wrap(rows.Err())
}
