// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package ckdbdb

import (
	"time"

	"github.com/spacemonkeygo/monkit/v3"

	"ckpool.org/ckdb/fieldtext"
)

var mon = monkit.Package()

// timevalParam renders t for a statement parameter: the fieldtext local
// rendering plus an explicit offset, so the stored instant does not
// depend on the session timezone.
func timevalParam(t time.Time) string {
	return fieldtext.FormatTimeval(t) + t.Local().Format("-07:00")
}

// liveExpiry is the parameter that selects live rows.
func liveExpiry() string {
	return timevalParam(fieldtext.DefaultExpiry)
}
