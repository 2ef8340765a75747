// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdbdb

import (
	"context"
	"database/sql"

	"github.com/zeebo/errs"

	"ckpool.org/ckdb/accounting"
	"ckpool.org/ckdb/fieldtext"
	"ckpool.org/ckdb/private/dbutil/txutil"
)

type workersRepo struct{ db *sql.DB }

func (repo *workersRepo) Insert(ctx context.Context, worker *accounting.Worker) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = repo.db.ExecContext(ctx, insertWorkerSQL, insertWorkerArgs(worker)...)
	return Error.Wrap(err)
}

// Update expires the live version of the worker and inserts the
// replacement in one transaction, retried on serialisation failures.
func (repo *workersRepo) Update(ctx context.Context, worker *accounting.Worker) (err error) {
	defer mon.Task()(&ctx)(&err)

	err = txutil.WithTx(ctx, repo.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE workers
			SET expirydate = $1
			WHERE workerid = $2 AND expirydate = $3`,
			timevalParam(worker.CreateDate), worker.WorkerID, liveExpiry(),
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected != 1 {
			return Error.New("worker %d has no live row to expire", worker.WorkerID)
		}

		_, err = tx.ExecContext(ctx, insertWorkerSQL, insertWorkerArgs(worker)...)
		return err
	})
	return Error.Wrap(err)
}

func (repo *workersRepo) SelectLive(ctx context.Context) (_ []*accounting.Worker, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.QueryContext(ctx, `
		SELECT workerid, userid, workername, difficultydefault,
		       idlenotificationenabled, idlenotificationtime,
		       createdate::text, createby, createcode, createinet, expirydate::text
		FROM workers
		WHERE expirydate = $1`,
		liveExpiry(),
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var workers []*accounting.Worker
	for rows.Next() {
		var worker accounting.Worker
		var created, expiry string
		err := rows.Scan(
			&worker.WorkerID, &worker.UserID, &worker.WorkerName, &worker.DifficultyDefault,
			&worker.IdleNotificationEnabled, &worker.IdleNotificationTime,
			&created, &worker.CreateBy, &worker.CreateCode, &worker.CreateInet, &expiry)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if worker.WorkerName, err = fieldtext.ParseString("workername", worker.WorkerName, fieldtext.TextBig); err != nil {
			return nil, Error.Wrap(err)
		}
		if worker.CreateDate, err = fieldtext.ParseTimeval("createdate", created); err != nil {
			return nil, Error.Wrap(err)
		}
		if worker.ExpiryDate, err = fieldtext.ParseTimeval("expirydate", expiry); err != nil {
			return nil, Error.Wrap(err)
		}
		workers = append(workers, &worker)
	}
	return workers, Error.Wrap(rows.Err())
}

const insertWorkerSQL = `
	INSERT INTO workers
		(workerid, userid, workername, difficultydefault,
		 idlenotificationenabled, idlenotificationtime,
		 createdate, createby, createcode, createinet, expirydate)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

func insertWorkerArgs(worker *accounting.Worker) []interface{} {
	return []interface{}{
		worker.WorkerID, worker.UserID, worker.WorkerName, worker.DifficultyDefault,
		worker.IdleNotificationEnabled, worker.IdleNotificationTime,
		timevalParam(worker.CreateDate), worker.CreateBy, worker.CreateCode, worker.CreateInet,
		timevalParam(worker.ExpiryDate),
	}
}
