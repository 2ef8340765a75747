// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package transfer parses incoming requests and carries their named
// fields.
//
// A message is "id.cmd" optionally followed by ".data". The data segment
// is either name=value fields separated by the 0x02 byte, or "json="
// followed by one JSON object. Either way the fields end up in a Map,
// where the first occurrence of a name wins.
package transfer

import (
	"github.com/zeebo/errs"
)

// Error is the transfer error class.
var Error = errs.Class("transfer")

const (
	// FieldSep separates name=value fields in the data segment and in
	// tabular replies.
	FieldSep = "\x02"

	// MaxIDLen bounds the request id echoed in replies.
	MaxIDLen = 31

	// MaxNameLen bounds field names; longer names are truncated.
	MaxNameLen = 63
)

// Map holds the named fields of one request.
type Map struct {
	values map[string]string
}

// NewMap creates an empty field map.
func NewMap() *Map {
	return &Map{values: make(map[string]string)}
}

// Add records value under name unless the name is already present.
func (m *Map) Add(name, value string) {
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	if _, ok := m.values[name]; ok {
		return
	}
	m.values[name] = value
}

// Get returns the value recorded under name.
func (m *Map) Get(name string) (value string, ok bool) {
	value, ok = m.values[name]
	return value, ok
}

// Len returns the number of distinct fields.
func (m *Map) Len() int { return len(m.values) }
