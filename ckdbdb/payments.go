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

// Payout rows are written by the payout tooling; this side only reads
// them back for the payments command.
type paymentsRepo struct{ db *sql.DB }

func (repo *paymentsRepo) SelectLive(ctx context.Context) (_ []*accounting.Payment, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.QueryContext(ctx, `
		SELECT paymentid, userid, paydate::text, payaddress,
		       COALESCE(originaltxn, ''), amount,
		       COALESCE(committxn, ''), COALESCE(commitblockhash, ''),
		       createdate::text, createby, createcode, createinet, expirydate::text
		FROM payments
		WHERE expirydate = $1`,
		liveExpiry(),
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var payments []*accounting.Payment
	for rows.Next() {
		var payment accounting.Payment
		var paydate, created, expiry string
		err := rows.Scan(
			&payment.PaymentID, &payment.UserID, &paydate, &payment.PayAddress,
			&payment.OriginalTxn, &payment.Amount,
			&payment.CommitTxn, &payment.CommitBlockHash,
			&created, &payment.CreateBy, &payment.CreateCode, &payment.CreateInet, &expiry)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		if payment.PayAddress, err = fieldtext.ParseString("payaddress", payment.PayAddress, fieldtext.TextBig); err != nil {
			return nil, Error.Wrap(err)
		}
		if payment.PayDate, err = fieldtext.ParseTimeval("paydate", paydate); err != nil {
			return nil, Error.Wrap(err)
		}
		if payment.CreateDate, err = fieldtext.ParseTimeval("createdate", created); err != nil {
			return nil, Error.Wrap(err)
		}
		if payment.ExpiryDate, err = fieldtext.ParseTimeval("expirydate", expiry); err != nil {
			return nil, Error.Wrap(err)
		}
		payments = append(payments, &payment)
	}
	return payments, Error.Wrap(rows.Err())
}
