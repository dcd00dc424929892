package blockstore

import (
	"bytes"
	"slices"

	"github.com/navijation/njlob/storage/keyvaluepair"
)

// memtable is an in-memory index of recently-written blocks, keyed by their
// 8-byte big-endian block key. Block keys are dense and monotonically
// increasing, but memtable still searches by byte comparison rather than
// direct indexing: after a Remove, a key's slot holds a tombstone rather
// than disappearing, so lookups still need to find it by key.
type memtable struct {
	entries []keyvaluepair.KeyValuePair
}

func (me *memtable) upsert(kvp keyvaluepair.KeyValuePair) {
	idx, exists := slices.BinarySearchFunc(
		me.entries, kvp.Key, func(pair keyvaluepair.KeyValuePair, target []byte) int {
			return bytes.Compare(pair.Key, target)
		},
	)
	if exists {
		me.entries[idx] = kvp
	} else {
		me.entries = slices.Insert(me.entries, idx, kvp)
	}
}

func (me *memtable) lookup(key []byte) (out keyvaluepair.KeyValuePair, exists bool) {
	idx, exists := slices.BinarySearchFunc(
		me.entries, key, func(pair keyvaluepair.KeyValuePair, target []byte) int {
			return bytes.Compare(pair.Key, target)
		},
	)
	if !exists {
		return out, false
	}
	return me.entries[idx], true
}
