// Package blockmap defines the ordered, sequentially-keyed map of opaque
// byte blocks that storage/lobid's writer and reader are built against.
// storage/blockstore provides the durable, WAL-backed implementation;
// storage/blockmap/memory provides an in-memory one for tests and for
// small, ephemeral stores.
package blockmap

import "errors"

// ErrNotFound is returned by Get and Remove when key does not exist in the
// map, including keys that once existed but were already removed.
var ErrNotFound = errors.New("blockmap: key not found")

// BlockMap is an ordered map from a densely-allocated uint64 key space to
// opaque byte blocks. Keys are assigned by the map itself, in increasing
// order, on Append; callers never choose a key.
//
// A BlockMap satisfies storage/lobid's BlockGetter and BlockRemover
// interfaces directly, so lobid.MaxBlockKey and lobid.Remove can operate on
// one without any adapter.
type BlockMap interface {
	// Append stores data under a newly allocated key, one greater than the
	// previous highest key ever allocated (0 for an empty map), and returns
	// that key.
	Append(data []byte) (uint64, error)

	// Get returns the block stored under key, or ErrNotFound if it does not
	// exist or was removed.
	Get(key uint64) ([]byte, error)

	// Remove deletes the block stored under key. Removing an already-removed
	// or never-allocated key returns ErrNotFound.
	Remove(key uint64) error

	// LastKey returns the highest key ever allocated by Append and true, or
	// (0, false) if Append has never been called.
	LastKey() (uint64, bool)

	// IsEmpty reports whether the map currently holds no live blocks. A map
	// that has had every block removed is empty even if LastKey is set.
	IsEmpty() bool

	// GC compacts away the storage held by removed blocks. It does not
	// change the result of any Get/LastKey/IsEmpty call.
	GC() error

	// Clear removes every block from the map, as if a fresh map had been
	// opened in its place.
	Clear() error

	// Save durably persists anything not yet guaranteed to survive a crash.
	// Implementations that already make every Append/Remove durable before
	// returning may treat this as a no-op.
	Save() error

	// Close releases any resources held by the map. A closed BlockMap must
	// not be used again.
	Close() error
}
