// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdbdb

import (
	"context"
	"database/sql"
	"time"

	"ckpool.org/ckdb/accounting"
	"ckpool.org/ckdb/private/dbutil/txutil"
)

type idsRepo struct{ db *sql.DB }

func (repo *idsRepo) Insert(ctx context.Context, row *accounting.IDControl) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO idcontrol
			(idname, lastid,
			 createdate, createby, createcode, createinet,
			 modifydate, modifyby, modifycode, modifyinet)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		row.IDName, row.LastID,
		timevalParam(row.CreateDate), row.CreateBy, row.CreateCode, row.CreateInet,
		timevalParam(row.ModifyDate), row.ModifyBy, row.ModifyCode, row.ModifyInet,
	)
	return Error.Wrap(err)
}

// Next advances the named counter under a row lock, so concurrent
// callers always see distinct values.
func (repo *idsRepo) Next(ctx context.Context, idname string, increment int64, now time.Time, by, code, inet string) (lastid int64, err error) {
	defer mon.Task()(&ctx)(&err)

	err = txutil.WithTx(ctx, repo.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT lastid FROM idcontrol WHERE idname = $1 FOR UPDATE`,
			idname,
		)
		if err := row.Scan(&lastid); err != nil {
			return err
		}
		lastid += increment

		_, err := tx.ExecContext(ctx, `
			UPDATE idcontrol
			SET lastid = $1, modifydate = $2, modifyby = $3, modifycode = $4, modifyinet = $5
			WHERE idname = $6`,
			lastid, timevalParam(now), by, code, inet, idname,
		)
		return err
	})
	if err != nil {
		return 0, Error.Wrap(err)
	}
	return lastid, nil
}
