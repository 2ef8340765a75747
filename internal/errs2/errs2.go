// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package errs2 collects common error handling functions.
package errs2

import (
	"context"
	"errors"

	"github.com/zeebo/errs"
)

// IsCanceled returns true, when the error is a cancellation.
func IsCanceled(err error) bool {
	return errs.IsFunc(err, func(err error) bool {
		return errors.Is(err, context.Canceled)
	})
}

// IgnoreCanceled returns nil, when the operation was about canceling.
func IgnoreCanceled(err error) error {
	if IsCanceled(err) {
		return nil
	}
	return err
}
