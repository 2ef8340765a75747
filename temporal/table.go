// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

// Package temporal implements ordered in-memory tables over history rows.
//
// A table keeps one row set under several orderings at once. Orderings
// over history rows end with expirydate descending, so a probe carrying
// the business key and the live sentinel lands exactly on the live row,
// ahead of any expired versions of the same key.
package temporal

import (
	"math"
	"sync"

	"github.com/google/btree"
)

// LessFunc orders rows within one index.
type LessFunc[R comparable] func(a, b R) bool

// item pairs a row with its insertion sequence. The sequence is the
// final tie-break of every index, so rows that compare equal under one
// ordering but are distinct under another never displace each other.
type item[R comparable] struct {
	row R
	seq uint64
}

// Table is a set of rows maintained under several orderings at once. All
// indexes hold the same rows; one lock keeps them consistent.
type Table[R comparable] struct {
	mu      sync.RWMutex
	less    []LessFunc[R]
	indexes []*btree.BTreeG[item[R]]
	seqs    map[R]uint64
	lastSeq uint64
}

const degree = 32

// New creates a table with one index per ordering.
func New[R comparable](less ...LessFunc[R]) *Table[R] {
	table := &Table[R]{
		less: less,
		seqs: make(map[R]uint64),
	}
	for _, fn := range less {
		fn := fn
		table.indexes = append(table.indexes, btree.NewG(degree, func(a, b item[R]) bool {
			if fn(a.row, b.row) {
				return true
			}
			if fn(b.row, a.row) {
				return false
			}
			return a.seq < b.seq
		}))
	}
	return table
}

// Insert links row into every index. Re-inserting a row is a no-op.
func (table *Table[R]) Insert(row R) {
	table.mu.Lock()
	defer table.mu.Unlock()
	table.insertLocked(row)
}

func (table *Table[R]) insertLocked(row R) {
	seq, ok := table.seqs[row]
	if !ok {
		table.lastSeq++
		seq = table.lastSeq
		table.seqs[row] = seq
	}
	for _, index := range table.indexes {
		index.ReplaceOrInsert(item[R]{row: row, seq: seq})
	}
}

// Delete unlinks row from every index. It reports whether the row was
// present.
func (table *Table[R]) Delete(row R) bool {
	table.mu.Lock()
	defer table.mu.Unlock()
	return table.deleteLocked(row)
}

func (table *Table[R]) deleteLocked(row R) bool {
	seq, ok := table.seqs[row]
	if !ok {
		return false
	}
	delete(table.seqs, row)
	for _, index := range table.indexes {
		index.Delete(item[R]{row: row, seq: seq})
	}
	return true
}

// Replace unlinks old and links replacement under a single lock hold.
func (table *Table[R]) Replace(old, replacement R) {
	table.mu.Lock()
	defer table.mu.Unlock()
	table.deleteLocked(old)
	table.insertLocked(replacement)
}

// Find returns a row equal to probe under the index ordering. When
// several rows compare equal the earliest inserted wins.
func (table *Table[R]) Find(index int, probe R) (row R, ok bool) {
	table.mu.RLock()
	defer table.mu.RUnlock()
	less := table.less[index]
	table.indexes[index].AscendGreaterOrEqual(item[R]{row: probe}, func(it item[R]) bool {
		if !less(it.row, probe) && !less(probe, it.row) {
			row, ok = it.row, true
		}
		return false
	})
	return row, ok
}

// FindBefore returns the greatest row strictly below probe under the
// index ordering.
func (table *Table[R]) FindBefore(index int, probe R) (row R, ok bool) {
	table.mu.RLock()
	defer table.mu.RUnlock()
	less := table.less[index]
	table.indexes[index].DescendLessOrEqual(item[R]{row: probe, seq: math.MaxUint64}, func(it item[R]) bool {
		if !less(it.row, probe) && !less(probe, it.row) {
			return true // equal to the probe, keep descending
		}
		row, ok = it.row, true
		return false
	})
	return row, ok
}

// AscendAfter calls iter for every row strictly above probe, in index
// order, until iter returns false.
func (table *Table[R]) AscendAfter(index int, probe R, iter func(R) bool) {
	table.mu.RLock()
	defer table.mu.RUnlock()
	table.indexes[index].AscendGreaterOrEqual(item[R]{row: probe, seq: math.MaxUint64}, func(it item[R]) bool {
		return iter(it.row)
	})
}

// Ascend calls iter for every row in index order until iter returns
// false.
func (table *Table[R]) Ascend(index int, iter func(R) bool) {
	table.mu.RLock()
	defer table.mu.RUnlock()
	table.indexes[index].Ascend(func(it item[R]) bool {
		return iter(it.row)
	})
}

// Len returns the number of rows.
func (table *Table[R]) Len() int {
	table.mu.RLock()
	defer table.mu.RUnlock()
	return len(table.seqs)
}

// Purge drops every row.
func (table *Table[R]) Purge() {
	table.mu.Lock()
	defer table.mu.Unlock()
	table.seqs = make(map[R]uint64)
	for _, index := range table.indexes {
		index.Clear(false)
	}
}
