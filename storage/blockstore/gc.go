package blockstore

import (
	"os"
	"path/filepath"

	"github.com/navijation/njlob/storage/sstable"
)

// GC flushes the current memtable and then merge-compacts every sstable
// into one, dropping tombstoned keys entirely: once merged, a removed key's
// tombstone no longer shadows an older value anywhere, so nothing further
// needs it kept around.
func (me *Store) GC() error {
	if err := me.flush(); err != nil {
		return err
	}

	ctx := &dbCtx{}
	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	if len(me.sstables) <= 1 {
		return nil
	}

	file, err := os.CreateTemp(filepath.Join(me.path, "tmp"), "block_table_merged_")
	if err != nil {
		return err
	}
	_ = os.Remove(file.Name())
	defer os.Remove(file.Name())
	_ = file.Close()

	merged, err := sstable.Open(sstable.OpenArgs{
		Path:           file.Name(),
		Create:         true,
		IndexChunkSize: me.indexChunkSize,
	})
	if err != nil {
		return err
	}

	// sstables are newest-first; MergeTables needs oldest-first so that, on
	// a key tie, the later-indexed (newer) source wins -- matching the same
	// precedence lookupLocked already uses across the sstable list.
	srcs := make([]*sstable.SSTable, len(me.sstables))
	for i, sst := range me.sstables {
		srcs[len(me.sstables)-1-i] = sst
	}

	if err := merged.MergeTables(sstable.MergeTablesArgs{Srcs: srcs}); err != nil {
		return err
	}

	if err := me.dropTombstones(&merged); err != nil {
		return err
	}

	newSSTableNumber := me.nextSSTableNumber
	me.nextSSTableNumber++

	if err := merged.Rename(me.sstablePath(newSSTableNumber)); err != nil {
		return err
	}

	oldSSTables := me.sstables
	me.sstables = []*sstable.SSTable{&merged}

	for _, old := range oldSSTables {
		path := old.Path()
		_ = old.Close()
		_ = os.Remove(path)
	}

	return nil
}

// dropTombstones rewrites merged in place, keeping only its live entries.
// MergeTables itself must carry tombstones through so that a key removed in
// a newer table correctly shadows its value in an older one; only once
// every source table has been folded into one is it safe to drop them.
func (me *Store) dropTombstones(merged *sstable.SSTable) error {
	var live []sstable.KeyValuePair
	for entry, err := range merged.Entries() {
		if err != nil {
			return err
		}
		if !entry.IsDeleted {
			live = append(live, sstable.KeyValuePair{Key: entry.Key, Value: entry.Value})
		}
	}

	file, err := os.CreateTemp(filepath.Join(me.path, "tmp"), "block_table_compact_")
	if err != nil {
		return err
	}
	_ = os.Remove(file.Name())
	defer os.Remove(file.Name())
	_ = file.Close()

	rewritten, err := sstable.Open(sstable.OpenArgs{
		Path:           file.Name(),
		Create:         true,
		IndexChunkSize: me.indexChunkSize,
	})
	if err != nil {
		return err
	}

	if err := rewritten.AppendEntries(func(yield func(sstable.KeyValuePair) bool) {
		for _, kvp := range live {
			if !yield(kvp) {
				return
			}
		}
	}); err != nil {
		return err
	}

	oldPath := merged.Path()
	if err := merged.Close(); err != nil {
		return err
	}
	if err := os.Remove(oldPath); err != nil {
		return err
	}
	if err := rewritten.Rename(oldPath); err != nil {
		return err
	}

	*merged = rewritten
	return nil
}
