// Package memory provides an in-memory blockmap.BlockMap, for tests and for
// stores small enough that durability does not matter.
package memory

import (
	"sync"

	"github.com/navijation/njlob/storage/blockmap"
)

// Map is a BlockMap backed by a plain slice indexed directly by key. Unlike
// storage/blockstore's memtable (a binary-searched index over encoded
// 8-byte keys), a Map's keys are dense and sequential from Append, so a
// slice slot per key is simpler and just as fast.
type Map struct {
	mu       sync.RWMutex
	blocks   [][]byte // blocks[i] holds the block for key i; nil means removed
	liveLeft int      // number of non-nil entries
}

// New returns an empty Map.
func New() *Map {
	return &Map{}
}

func (m *Map) Append(data []byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := append([]byte(nil), data...)
	key := uint64(len(m.blocks))
	m.blocks = append(m.blocks, cp)
	m.liveLeft++
	return key, nil
}

func (m *Map) Get(key uint64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if key >= uint64(len(m.blocks)) || m.blocks[key] == nil {
		return nil, blockmap.ErrNotFound
	}
	return m.blocks[key], nil
}

func (m *Map) Remove(key uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key >= uint64(len(m.blocks)) || m.blocks[key] == nil {
		return blockmap.ErrNotFound
	}
	m.blocks[key] = nil
	m.liveLeft--
	return nil
}

func (m *Map) LastKey() (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.blocks) == 0 {
		return 0, false
	}
	return uint64(len(m.blocks) - 1), true
}

func (m *Map) IsEmpty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.liveLeft == 0
}

// GC is a no-op: a removed slot already holds no data, and slice-of-slices
// has no compaction pass worth doing in memory.
func (m *Map) GC() error {
	return nil
}

func (m *Map) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	m.liveLeft = 0
	return nil
}

// Save is a no-op: there is nothing to persist for an in-memory map.
func (m *Map) Save() error {
	return nil
}

func (m *Map) Close() error {
	return nil
}
