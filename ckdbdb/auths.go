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

type authsRepo struct{ db *sql.DB }

func (repo *authsRepo) Insert(ctx context.Context, auth *accounting.Auth) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO auths
			(authid, userid, workername, clientid, enonce1, useragent,
			 createdate, createby, createcode, createinet, expirydate)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		auth.AuthID, auth.UserID, auth.WorkerName, auth.ClientID, auth.Enonce1, auth.UserAgent,
		timevalParam(auth.CreateDate), auth.CreateBy, auth.CreateCode, auth.CreateInet,
		timevalParam(auth.ExpiryDate),
	)
	return Error.Wrap(err)
}

func (repo *authsRepo) SelectLive(ctx context.Context) (_ []*accounting.Auth, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.QueryContext(ctx, `
		SELECT authid, userid, workername, clientid, enonce1, useragent,
		       createdate::text, createby, createcode, createinet, expirydate::text
		FROM auths
		WHERE expirydate = $1`,
		liveExpiry(),
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var auths []*accounting.Auth
	for rows.Next() {
		var auth accounting.Auth
		var created, expiry string
		err := rows.Scan(
			&auth.AuthID, &auth.UserID, &auth.WorkerName, &auth.ClientID,
			&auth.Enonce1, &auth.UserAgent,
			&created, &auth.CreateBy, &auth.CreateCode, &auth.CreateInet, &expiry)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if auth.WorkerName, err = fieldtext.ParseString("workername", auth.WorkerName, fieldtext.TextBig); err != nil {
			return nil, Error.Wrap(err)
		}
		if auth.CreateDate, err = fieldtext.ParseTimeval("createdate", created); err != nil {
			return nil, Error.Wrap(err)
		}
		if auth.ExpiryDate, err = fieldtext.ParseTimeval("expirydate", expiry); err != nil {
			return nil, Error.Wrap(err)
		}
		auths = append(auths, &auth)
	}
	return auths, Error.Wrap(rows.Err())
}
