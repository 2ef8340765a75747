// Copyright (C) 2026 ckpool developers.
// See LICENSE for copying information.

package temporal_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ckpool.org/ckdb/fieldtext"
	"ckpool.org/ckdb/temporal"
)

type entry struct {
	key    string
	seq    int64
	expiry time.Time
}

const (
	byKey = iota
	bySeq
)

func newEntries() *temporal.Table[*entry] {
	return temporal.New[*entry](
		func(a, b *entry) bool {
			if a.key != b.key {
				return a.key < b.key
			}
			return a.expiry.After(b.expiry)
		},
		func(a, b *entry) bool {
			if a.seq != b.seq {
				return a.seq < b.seq
			}
			return a.expiry.After(b.expiry)
		},
	)
}

func TestFindPrefersLiveRow(t *testing.T) {
	table := newEntries()

	expired := &entry{key: "alice", seq: 1, expiry: time.Unix(1401707717, 0)}
	live := &entry{key: "alice", seq: 2, expiry: fieldtext.DefaultExpiry}
	table.Insert(expired)
	table.Insert(live)

	row, ok := table.Find(byKey, &entry{key: "alice", expiry: fieldtext.DefaultExpiry})
	require.True(t, ok)
	require.Same(t, live, row)

	// The expired version is still reachable with its own expirydate.
	row, ok = table.Find(byKey, &entry{key: "alice", expiry: expired.expiry})
	require.True(t, ok)
	require.Same(t, expired, row)

	_, ok = table.Find(byKey, &entry{key: "bob", expiry: fieldtext.DefaultExpiry})
	require.False(t, ok)
}

func TestInsertKeepsEqualRows(t *testing.T) {
	table := newEntries()

	// Both rows compare equal under byKey but are distinct under bySeq;
	// neither may displace the other from any index.
	first := &entry{key: "k", seq: 1, expiry: fieldtext.DefaultExpiry}
	second := &entry{key: "k", seq: 2, expiry: fieldtext.DefaultExpiry}
	table.Insert(first)
	table.Insert(second)
	require.Equal(t, 2, table.Len())

	row, ok := table.Find(bySeq, &entry{seq: 1, expiry: fieldtext.DefaultExpiry})
	require.True(t, ok)
	require.Same(t, first, row)
	row, ok = table.Find(bySeq, &entry{seq: 2, expiry: fieldtext.DefaultExpiry})
	require.True(t, ok)
	require.Same(t, second, row)

	var count int
	table.Ascend(byKey, func(*entry) bool { count++; return true })
	require.Equal(t, 2, count)

	// Equal rows yield the earliest inserted.
	row, ok = table.Find(byKey, &entry{key: "k", expiry: fieldtext.DefaultExpiry})
	require.True(t, ok)
	require.Same(t, first, row)

	// Re-inserting an existing row does not duplicate it.
	table.Insert(first)
	require.Equal(t, 2, table.Len())

	// Deleting one equal row leaves the other in every index.
	require.True(t, table.Delete(first))
	require.Equal(t, 1, table.Len())
	row, ok = table.Find(byKey, &entry{key: "k", expiry: fieldtext.DefaultExpiry})
	require.True(t, ok)
	require.Same(t, second, row)
	_, ok = table.Find(bySeq, &entry{seq: 1, expiry: fieldtext.DefaultExpiry})
	require.False(t, ok)
}

func TestDeleteUnlinksAllIndexes(t *testing.T) {
	table := newEntries()
	row := &entry{key: "alice", seq: 7, expiry: fieldtext.DefaultExpiry}
	table.Insert(row)

	require.True(t, table.Delete(row))
	_, ok := table.Find(byKey, row)
	require.False(t, ok)
	_, ok = table.Find(bySeq, row)
	require.False(t, ok)
	require.False(t, table.Delete(row))
}

func TestReplace(t *testing.T) {
	table := newEntries()
	old := &entry{key: "alice", seq: 1, expiry: fieldtext.DefaultExpiry}
	table.Insert(old)

	replacement := &entry{key: "alice", seq: 2, expiry: fieldtext.DefaultExpiry}
	table.Replace(old, replacement)

	require.Equal(t, 1, table.Len())
	row, ok := table.Find(byKey, &entry{key: "alice", expiry: fieldtext.DefaultExpiry})
	require.True(t, ok)
	require.Same(t, replacement, row)
	_, ok = table.Find(bySeq, &entry{seq: 1, expiry: fieldtext.DefaultExpiry})
	require.False(t, ok)
}

func TestFindBefore(t *testing.T) {
	table := newEntries()
	for seq := int64(1); seq <= 5; seq++ {
		table.Insert(&entry{key: "pool", seq: seq, expiry: fieldtext.DefaultExpiry})
	}

	// Equal rows are skipped: the result is strictly below the probe.
	row, ok := table.FindBefore(bySeq, &entry{seq: 4, expiry: fieldtext.DefaultExpiry})
	require.True(t, ok)
	require.Equal(t, int64(3), row.seq)

	// A probe above everything finds the last row.
	row, ok = table.FindBefore(bySeq, &entry{seq: 1 << 40})
	require.True(t, ok)
	require.Equal(t, int64(5), row.seq)

	_, ok = table.FindBefore(bySeq, &entry{seq: 1, expiry: fieldtext.DefaultExpiry})
	require.False(t, ok)
}

func TestAscendAfter(t *testing.T) {
	table := newEntries()
	for seq := int64(1); seq <= 5; seq++ {
		table.Insert(&entry{key: "pool", seq: seq, expiry: fieldtext.DefaultExpiry})
	}

	var seen []int64
	table.AscendAfter(bySeq, &entry{seq: 2, expiry: fieldtext.DefaultExpiry}, func(row *entry) bool {
		seen = append(seen, row.seq)
		return true
	})
	require.Equal(t, []int64{3, 4, 5}, seen)

	seen = nil
	table.AscendAfter(bySeq, &entry{seq: 0}, func(row *entry) bool {
		seen = append(seen, row.seq)
		return len(seen) < 2
	})
	require.Equal(t, []int64{1, 2}, seen)
}

func TestPurge(t *testing.T) {
	table := newEntries()
	table.Insert(&entry{key: "alice", seq: 1, expiry: fieldtext.DefaultExpiry})
	table.Insert(&entry{key: "bob", seq: 2, expiry: fieldtext.DefaultExpiry})
	require.Equal(t, 2, table.Len())

	table.Purge()
	require.Equal(t, 0, table.Len())
	_, ok := table.Find(byKey, &entry{key: "alice", expiry: fieldtext.DefaultExpiry})
	require.False(t, ok)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	table := newEntries()
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				table.Insert(&entry{key: "k", seq: int64(w*1000 + i), expiry: fieldtext.DefaultExpiry})
			}
		}()
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				table.Ascend(bySeq, func(row *entry) bool { return true })
				table.FindBefore(bySeq, &entry{seq: 1 << 40})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 400, table.Len())
}
