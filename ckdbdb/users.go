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

type usersRepo struct{ db *sql.DB }

func (repo *usersRepo) Insert(ctx context.Context, user *accounting.User) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO users
			(userid, username, emailaddress, joineddate, passwordhash, secondaryuserid,
			 createdate, createby, createcode, createinet, expirydate)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.UserID, user.Username, user.EmailAddress, timevalParam(user.JoinedDate),
		user.PasswordHash, user.SecondaryUserID,
		timevalParam(user.CreateDate), user.CreateBy, user.CreateCode, user.CreateInet,
		timevalParam(user.ExpiryDate),
	)
	return Error.Wrap(err)
}

func (repo *usersRepo) SelectLive(ctx context.Context) (_ []*accounting.User, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.QueryContext(ctx, `
		SELECT userid, username, emailaddress, joineddate::text, passwordhash, secondaryuserid,
		       createdate::text, createby, createcode, createinet, expirydate::text
		FROM users
		WHERE expirydate = $1`,
		liveExpiry(),
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var users []*accounting.User
	for rows.Next() {
		var user accounting.User
		var joined, created, expiry string
		err := rows.Scan(
			&user.UserID, &user.Username, &user.EmailAddress, &joined,
			&user.PasswordHash, &user.SecondaryUserID,
			&created, &user.CreateBy, &user.CreateCode, &user.CreateInet, &expiry)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if user.Username, err = fieldtext.ParseString("username", user.Username, fieldtext.TextBig); err != nil {
			return nil, Error.Wrap(err)
		}
		if user.SecondaryUserID, err = fieldtext.ParseString("secondaryuserid", user.SecondaryUserID, fieldtext.TextSmall); err != nil {
			return nil, Error.Wrap(err)
		}
		if user.JoinedDate, err = fieldtext.ParseTimeval("joineddate", joined); err != nil {
			return nil, Error.Wrap(err)
		}
		if user.CreateDate, err = fieldtext.ParseTimeval("createdate", created); err != nil {
			return nil, Error.Wrap(err)
		}
		if user.ExpiryDate, err = fieldtext.ParseTimeval("expirydate", expiry); err != nil {
			return nil, Error.Wrap(err)
		}
		users = append(users, &user)
	}
	return users, Error.Wrap(rows.Err())
}
