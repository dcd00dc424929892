// Package lob implements the LOB (Large Object) chunked stream store: it
// persists arbitrarily large byte streams as a compact, self-describing
// "stream id" inside an external ordered block map, recursively indirecting
// through the map when the id itself grows too large to stay inline.
package lob

import (
	"sync"
	"sync/atomic"

	"github.com/navijation/njlob/storage/blockmap"
	"github.com/navijation/njlob/storage/lobid"
)

// Store is the public entry point: put a stream in, get an id back; open an
// id as a stream; walk or remove an id's blocks. A Store does not own the
// lifetime of the block map it wraps beyond forwarding Close/Save/GC/Clear
// to it.
type Store struct {
	blocks blockmap.BlockMap

	configMu sync.RWMutex
	config   Config

	// nextBuffer is the single-slot chunk buffer cache used by Put (see
	// takeBuffer/offerBuffer): at most one max-block-size buffer is kept
	// ready for reuse between Put calls, swapped out lock-free rather than
	// pooled.
	nextBuffer atomic.Pointer[[]byte]
}

// New wraps an already-open blockmap.BlockMap in a Store, using config for
// subsequent Put calls until changed via SetMinBlockSize/SetMaxBlockSize.
func New(blocks blockmap.BlockMap, config Config) *Store {
	return &Store{
		blocks: blocks,
		config: config,
	}
}

func (s *Store) currentConfig() Config {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.config
}

func (s *Store) GetMinBlockSize() uint64 {
	return s.currentConfig().MinBlockSize
}

func (s *Store) SetMinBlockSize(n uint64) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.MinBlockSize = n
}

func (s *Store) GetMaxBlockSize() uint64 {
	return s.currentConfig().MaxBlockSize
}

func (s *Store) SetMaxBlockSize(n uint64) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.config.MaxBlockSize = n
}

// Length sums an id's declared lengths without touching the block map.
func (s *Store) Length(id []byte) (uint64, error) {
	return lobid.Length(id)
}

// MaxBlockKey returns the largest block key reachable from id, or -1 if id
// references no blocks, surfacing ErrBlockNotFound directly on a dangling
// reference rather than wrapping it as an I/O error.
func (s *Store) MaxBlockKey(id []byte) (int64, error) {
	key, err := lobid.MaxBlockKey(id, s.blocks)
	if err != nil {
		return -1, translateBlockMapError(err)
	}
	return key, nil
}

// Remove deletes every block reachable from id. Removing an empty id is a
// no-op.
func (s *Store) Remove(id []byte) error {
	if len(id) == 0 {
		return nil
	}
	if err := lobid.Remove(id, s.blocks); err != nil {
		return translateBlockMapError(err)
	}
	return nil
}

// PrettyPrint renders id for diagnostics; the exact format is not stable.
func (s *Store) PrettyPrint(id []byte) (string, error) {
	return lobid.PrettyPrint(id)
}

func (s *Store) LastKey() (uint64, bool) {
	return s.blocks.LastKey()
}

func (s *Store) IsEmpty() bool {
	return s.blocks.IsEmpty()
}

// RemoveKey removes a single block key directly, bypassing id structure.
// Intended for orphan reclamation (see ScanOrphans), not for normal id
// lifecycle management.
func (s *Store) RemoveKey(key uint64) error {
	return translateBlockMapError(s.blocks.Remove(key))
}

func (s *Store) GC() error {
	return s.blocks.GC()
}

func (s *Store) Clear() error {
	return s.blocks.Clear()
}

func (s *Store) Save() error {
	return s.blocks.Save()
}

func (s *Store) Close() error {
	return s.blocks.Close()
}
