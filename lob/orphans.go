package lob

import (
	"sort"

	"github.com/navijation/njlob/storage/lobid"
	"github.com/navijation/njlob/util/heap"
)

// ScanOrphans reports every block key the store's block map currently
// holds that is not reachable from any of ids. Callers are expected to
// pass every id they still consider live (this package has no notion of
// which ids exist outside the ones it is handed); anything the map holds
// beyond their combined reachable set is a candidate for reclamation via
// RemoveKey. The block map itself exposes no key enumeration, so the scan
// walks every allocated key from 0 through LastKey once.
func (s *Store) ScanOrphans(ids [][]byte) ([]uint64, error) {
	last, ok := s.blocks.LastKey()
	if !ok {
		return nil, nil
	}

	mux := heap.NewHeap(func(a, b orphanCursor) int {
		switch {
		case a.current < b.current:
			return -1
		case a.current > b.current:
			return 1
		default:
			return 0
		}
	})

	for _, id := range ids {
		keys, err := lobid.ReachableKeys(id, s.blocks)
		if err != nil {
			return nil, translateBlockMapError(err)
		}
		if len(keys) == 0 {
			continue
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

		cursor := &sliceCursor{keys: keys}
		if first, ok := cursor.next(); ok {
			mux.Push(orphanCursor{current: first, next: cursor.next})
		}
	}

	reachableKey, reachableOK := nextReachableKey(&mux)

	var orphans []uint64
	for key := uint64(0); key <= last; key++ {
		for reachableOK && reachableKey < key {
			reachableKey, reachableOK = nextReachableKey(&mux)
		}

		if _, err := s.blocks.Get(key); err != nil {
			continue // never allocated, or already removed: not an orphan, just absent
		}

		if reachableOK && reachableKey == key {
			continue // reachable from some id; not an orphan
		}
		orphans = append(orphans, key)
	}
	return orphans, nil
}

// sliceCursor walks a single id's sorted reachable-key list one key at a
// time, so the merge below never holds more than one pending key per id.
type sliceCursor struct {
	keys []uint64
	pos  int
}

func (c *sliceCursor) next() (uint64, bool) {
	if c.pos >= len(c.keys) {
		return 0, false
	}
	k := c.keys[c.pos]
	c.pos++
	return k, true
}

// orphanCursor is one id's current smallest not-yet-consumed reachable
// key, ordered into mux the same way storage/sstable.MergeTables' tableMux
// orders per-table cursors by next key.
type orphanCursor struct {
	current uint64
	next    func() (uint64, bool)
}

func nextReachableKey(mux *heap.Heap[orphanCursor]) (uint64, bool) {
	if mux.Size() == 0 {
		return 0, false
	}
	entry := mux.Pop()
	if next, ok := entry.next(); ok {
		mux.Push(orphanCursor{current: next, next: entry.next})
	}
	return entry.current, true
}
