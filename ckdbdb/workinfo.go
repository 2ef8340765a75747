// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdbdb

import (
	"context"
	"database/sql"

	"ckpool.org/ckdb/accounting"
)

type workinfosRepo struct{ db *sql.DB }

func (repo *workinfosRepo) Insert(ctx context.Context, workinfo *accounting.Workinfo) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO workinfo
			(workinfoid, poolinstance, transactiontree, merklehash, prevhash,
			 coinbase1, coinbase2, version, bits, ntime, reward,
			 createdate, createby, createcode, createinet, expirydate)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		workinfo.WorkinfoID, workinfo.PoolInstance, workinfo.TransactionTree,
		workinfo.MerkleHash, workinfo.PrevHash,
		workinfo.Coinbase1, workinfo.Coinbase2, workinfo.Version, workinfo.Bits,
		workinfo.NTime, workinfo.Reward,
		timevalParam(workinfo.CreateDate), workinfo.CreateBy, workinfo.CreateCode,
		workinfo.CreateInet, timevalParam(workinfo.ExpiryDate),
	)
	return Error.Wrap(err)
}
