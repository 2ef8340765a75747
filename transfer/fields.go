// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package transfer

import (
	"fmt"
	"regexp"
)

// Field value patterns accepted by Require and Optional.
const (
	// UserPattern matches printable ASCII, including empty.
	UserPattern = `^[!-~]*$`
	// MailPattern matches an email address.
	MailPattern = `^[A-Za-z0-9_-][A-Za-z0-9_\.-]*@[A-Za-z0-9][A-Za-z0-9\.]*[A-Za-z0-9]$`
	// IDPattern matches an identifier not starting with a digit.
	IDPattern = `^[_A-Za-z][_A-Za-z0-9]*$`
	// IntPattern matches a non-empty run of digits.
	IntPattern = `^[0-9][0-9]*$`
	// HexPattern matches hexadecimal text, including empty.
	HexPattern = `^[A-Fa-f0-9]*$`
)

// Field failure kinds, echoed verbatim in replies.
const (
	KindMissing = "missing"
	KindShort   = "short"
	KindRegex   = "REC"
	KindInvalid = "invalid"
)

// FieldError describes a field that did not validate.
type FieldError struct {
	Kind string
	Name string
}

// Reply renders the failure the way handlers answer it.
func (e *FieldError) Reply() string {
	return fmt.Sprintf("failed.%s %s", e.Kind, e.Name)
}

// Error implements error.
func (e *FieldError) Error() string { return e.Reply() }

// InvalidField reports a field whose value was present but did not
// convert.
func InvalidField(name string) *FieldError {
	return &FieldError{Kind: KindInvalid, Name: name}
}

// Require returns the value of name. The value must be present, non-empty
// and at least minLen bytes, and match pattern when one is given.
func (m *Map) Require(name string, minLen int, pattern string) (string, *FieldError) {
	value, ok := m.Get(name)
	if !ok {
		return "", &FieldError{Kind: KindMissing, Name: name}
	}
	if value == "" || len(value) < minLen {
		return "", &FieldError{Kind: KindShort, Name: name}
	}
	if pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return "", &FieldError{Kind: KindRegex, Name: name}
		}
		if !re.MatchString(value) {
			return "", &FieldError{Kind: KindInvalid, Name: name}
		}
	}
	return value, nil
}

// Optional is Require without the failure reporting: ok is false when the
// field is absent or does not validate.
func (m *Map) Optional(name string, minLen int, pattern string) (value string, ok bool) {
	value, ferr := m.Require(name, minLen, pattern)
	return value, ferr == nil
}
