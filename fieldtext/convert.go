// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package fieldtext

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseString returns value unchanged after checking that it fits a
// column of width max. Database text wider than its destination is never
// truncated; callers treat the error as fatal.
func ParseString(name, value string, max int) (string, error) {
	if len(value) > max {
		return "", Error.New("field %s too long: %d > %d", name, len(value), max)
	}
	return value, nil
}

// ParseInt64 parses a bigint field.
func ParseInt64(name, value string) (int64, error) {
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, Error.New("field %s is not a bigint: %q", name, value)
	}
	return v, nil
}

// ParseInt32 parses an int field.
func ParseInt32(name, value string) (int32, error) {
	v, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, Error.New("field %s is not an int: %q", name, value)
	}
	return int32(v), nil
}

// ParseFloat64 parses a double precision field.
func ParseFloat64(name, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, Error.New("field %s is not a double: %q", name, value)
	}
	return v, nil
}

// ParseTimeval parses the two timestamp renderings produced by the
// database session, with and without fractional seconds. Values beyond
// CompareExpiry collapse to DefaultExpiry.
func ParseTimeval(name, value string) (time.Time, error) {
	base, frac := splitFraction(value)
	usec, ok := fractionMicros(frac)
	if !ok {
		return time.Time{}, Error.New("field %s is not a timestamp: %q", name, value)
	}
	var year, month, day, hour, min, sec, zone int
	n, err := fmt.Sscanf(base, "%d-%d-%d %d:%d:%d+%d",
		&year, &month, &day, &hour, &min, &sec, &zone)
	if err != nil || n != 7 {
		return time.Time{}, Error.New("field %s is not a timestamp: %q", name, value)
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, usec*1000, time.Local)
	return ClampExpiry(t), nil
}

// splitFraction cuts the fractional-second digits out of a timestamp
// rendering, leaving the zone suffix attached to the base.
func splitFraction(value string) (base, frac string) {
	dot := strings.IndexByte(value, '.')
	if dot < 0 {
		return value, ""
	}
	end := dot + 1
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	return value[:dot] + value[end:], value[dot+1 : end]
}

// fractionMicros scales fraction digits to microseconds. The database
// trims trailing zeros, so ".5" means half a second, not five
// microseconds.
func fractionMicros(frac string) (int, bool) {
	if frac == "" {
		return 0, true
	}
	if len(frac) > 6 {
		frac = frac[:6]
	}
	usec, err := strconv.Atoi(frac)
	if err != nil {
		return 0, false
	}
	for i := len(frac); i < 6; i++ {
		usec *= 10
	}
	return usec, true
}

// ParseSecMicros parses the "sec[,usec]" timestamp form used by request
// date overrides.
func ParseSecMicros(name, value string) (time.Time, error) {
	var sec, usec int64
	n, _ := fmt.Sscanf(value, "%d,%d", &sec, &usec)
	if n < 1 {
		return time.Time{}, Error.New("field %s is not a sec,usec timestamp: %q", name, value)
	}
	return time.Unix(sec, usec*1000), nil
}

// FormatTimeval renders t the way timestamps are sent to the database:
// local time, microsecond fraction, no zone suffix.
func FormatTimeval(t time.Time) string {
	t = t.Local()
	return fmt.Sprintf("%s.%06d", t.Format("2006-01-02 15:04:05"), t.Nanosecond()/1000)
}

// FormatInt64 renders a bigint field.
func FormatInt64(v int64) string { return strconv.FormatInt(v, 10) }

// FormatInt32 renders an int field.
func FormatInt32(v int32) string { return strconv.FormatInt(int64(v), 10) }

// FormatFloat64 renders a double precision field with six decimal
// places.
func FormatFloat64(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
