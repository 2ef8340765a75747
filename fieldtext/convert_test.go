// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package fieldtext_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ckpool.org/ckdb/fieldtext"
)

func TestParseTimeval(t *testing.T) {
	ts, err := fieldtext.ParseTimeval("createdate", "2014-06-03 11:52:56+00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2014, 6, 3, 11, 52, 56, 0, time.Local), ts)

	ts, err = fieldtext.ParseTimeval("createdate", "2014-06-03 11:52:56.123456+00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2014, 6, 3, 11, 52, 56, 123456000, time.Local), ts)

	for _, value := range []string{"", "garbage", "2014-06-03", "11:52:56"} {
		_, err = fieldtext.ParseTimeval("createdate", value)
		require.Error(t, err, "value %q", value)
	}
}

func TestParseTimevalTrimmedFraction(t *testing.T) {
	// The session renders timestamps with trailing fraction zeros
	// trimmed, so the digits are a decimal fraction, not a microsecond
	// count.
	for _, tt := range []struct {
		value string
		usec  int
	}{
		{"2014-06-03 11:52:56.5+00", 500000},
		{"2014-06-03 11:52:56.05+00", 50000},
		{"2014-06-03 11:52:56.123+00", 123000},
		{"2014-06-03 11:52:56.1234567+00", 123456},
	} {
		ts, err := fieldtext.ParseTimeval("createdate", tt.value)
		require.NoError(t, err, "value %q", tt.value)
		require.Equal(t, time.Date(2014, 6, 3, 11, 52, 56, tt.usec*1000, time.Local), ts, "value %q", tt.value)
	}
}

func TestParseTimevalClampsExpiry(t *testing.T) {
	// The live sentinel must survive a round-trip through any session
	// zone, so everything past the clamp threshold collapses to it.
	for _, value := range []string{
		"6666-06-06 06:06:06+00",
		"6666-06-06 06:06:06.000000+00",
		"6666-06-05 20:06:06+10",
		"7777-01-01 00:00:00+00",
	} {
		ts, err := fieldtext.ParseTimeval("expirydate", value)
		require.NoError(t, err, "value %q", value)
		require.Equal(t, fieldtext.DefaultExpiry, ts, "value %q", value)
	}

	// Ordinary dates stay put.
	ts, err := fieldtext.ParseTimeval("expirydate", "2014-06-03 11:52:56+00")
	require.NoError(t, err)
	require.NotEqual(t, fieldtext.DefaultExpiry, ts)
}

func TestFormatTimeval(t *testing.T) {
	ts := time.Date(2014, 6, 3, 11, 52, 56, 123456000, time.Local)
	require.Equal(t, "2014-06-03 11:52:56.123456", fieldtext.FormatTimeval(ts))

	ts = time.Date(2014, 6, 3, 11, 52, 56, 0, time.Local)
	require.Equal(t, "2014-06-03 11:52:56.000000", fieldtext.FormatTimeval(ts))
}

func TestTimevalRoundTrip(t *testing.T) {
	// Values we format are stored and come back with the session zone
	// appended.
	orig := time.Date(2021, 11, 30, 23, 59, 59, 999999000, time.Local)
	parsed, err := fieldtext.ParseTimeval("createdate", fieldtext.FormatTimeval(orig)+"+00")
	require.NoError(t, err)
	require.Equal(t, orig, parsed)
}

func TestParseSecMicros(t *testing.T) {
	ts, err := fieldtext.ParseSecMicros("createdate", "1401707717,234567")
	require.NoError(t, err)
	require.Equal(t, time.Unix(1401707717, 234567000), ts)

	ts, err = fieldtext.ParseSecMicros("createdate", "1401707717")
	require.NoError(t, err)
	require.Equal(t, time.Unix(1401707717, 0), ts)

	_, err = fieldtext.ParseSecMicros("createdate", "not-a-date")
	require.Error(t, err)
}

func TestParseString(t *testing.T) {
	value, err := fieldtext.ParseString("username", "alice", fieldtext.TextBig)
	require.NoError(t, err)
	require.Equal(t, "alice", value)

	_, err = fieldtext.ParseString("createby", strings.Repeat("x", fieldtext.TextSmall+1), fieldtext.TextSmall)
	require.Error(t, err)
}

func TestParseNumbers(t *testing.T) {
	v64, err := fieldtext.ParseInt64("workinfoid", "6040059")
	require.NoError(t, err)
	require.Equal(t, int64(6040059), v64)
	_, err = fieldtext.ParseInt64("workinfoid", "6040059x")
	require.Error(t, err)

	v32, err := fieldtext.ParseInt32("clientid", "-7")
	require.NoError(t, err)
	require.Equal(t, int32(-7), v32)
	_, err = fieldtext.ParseInt32("clientid", "99999999999")
	require.Error(t, err)

	f, err := fieldtext.ParseFloat64("sdiff", "2.5")
	require.NoError(t, err)
	require.Equal(t, 2.5, f)
	_, err = fieldtext.ParseFloat64("sdiff", "")
	require.Error(t, err)
}

func TestFormatNumbers(t *testing.T) {
	require.Equal(t, "6040059", fieldtext.FormatInt64(6040059))
	require.Equal(t, "-7", fieldtext.FormatInt32(-7))
	require.Equal(t, "2.500000", fieldtext.FormatFloat64(2.5))
	require.Equal(t, "0.000000", fieldtext.FormatFloat64(0))
}

func TestNowIsMicrosecondTruncated(t *testing.T) {
	now := fieldtext.Now()
	require.Zero(t, now.Nanosecond()%1000)
	require.Equal(t, now, now.Truncate(time.Microsecond))
}
