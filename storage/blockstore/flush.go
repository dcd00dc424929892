package blockstore

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/navijation/njlob/storage/journal"
	"github.com/navijation/njlob/storage/sstable"
	"github.com/navijation/njlob/util"
)

// flush writes the current memtable out to a new sstable and rotates onto a
// new write-ahead log, synchronously: unlike the async flush worker this
// was adapted from, GC's caller is expected to decide when flushing is
// worthwhile, rather than the store scheduling it on its own.
func (me *Store) flush() error {
	ctx := &dbCtx{}
	if err := me.checkStateErrorSafe(ctx); err != nil {
		return err
	}

	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	if len(me.memtables[0].entries) == 0 {
		return nil
	}

	entry := flushEntry{
		SSTableNumber: me.nextSSTableNumber,
		JournalNumber: me.nextJournalNumber,
	}

	if err := me.appendEntry(ctx, &entry); err != nil {
		me.stateErr = err
		return err
	}

	me.nextSSTableNumber++
	me.nextJournalNumber++

	entry.snapshot = me.memtables[0]
	me.memtables = slices.Insert(me.memtables, 0, &memtable{})

	return me.applyFlushEntry(ctx, entry)
}

// applyFlushEntry performs the durable work a flushEntry describes: opening
// the new write-ahead log the entry claims, and writing out the sstable
// covering entry.snapshot. WAL replay also calls it, with no snapshot, to
// recreate the write-ahead log the entry names; on that path no sstable is
// written, and the replayed entries stay in the memtable.
func (me *Store) applyFlushEntry(ctx *dbCtx, entry flushEntry) error {
	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	if err := me.createNewWriteAheadLog(ctx, entry.JournalNumber); err != nil {
		return err
	}

	if entry.snapshot == nil {
		// replay path: nothing was snapshotted for us, so there is nothing
		// to flush; the sstable for this entry, if it was ever written, is
		// already on disk and was picked up when the store was opened.
		return nil
	}

	if exists, err := util.FileExists(me.sstablePath(entry.SSTableNumber)); err != nil && !os.IsNotExist(err) {
		return err
	} else if exists {
		return nil
	}

	file, err := os.CreateTemp(filepath.Join(me.path, "tmp"), "block_table_")
	if err != nil {
		return err
	}
	_ = os.Remove(file.Name())
	defer os.Remove(file.Name())
	_ = file.Close()

	sstableFile, err := sstable.Open(sstable.OpenArgs{
		Path:           file.Name(),
		Create:         true,
		IndexChunkSize: me.indexChunkSize,
	})
	if err != nil {
		return err
	}

	if err := sstableFile.AppendEntries(func(yield func(sstable.KeyValuePair) bool) {
		for _, kvp := range entry.snapshot.entries {
			if !yield(sstable.KeyValuePair{Key: kvp.Key, Value: kvp.Value, IsDeleted: kvp.IsDeleted}) {
				return
			}
		}
	}); err != nil {
		me.stateErr = err
		return err
	}

	if err := sstableFile.Rename(me.sstablePath(entry.SSTableNumber)); err != nil {
		return err
	}

	me.memtables = me.memtables[:1]
	me.sstables = slices.Insert(me.sstables, 0, &sstableFile)
	return nil
}

func (me *Store) createNewWriteAheadLog(ctx *dbCtx, journalNumber uint64) error {
	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	canonicalPath := me.writeAheadLogPath(journalNumber)

	if exists, err := util.FileExists(canonicalPath); err != nil && !os.IsNotExist(err) {
		return err
	} else if exists {
		return nil
	}

	file, err := os.CreateTemp(filepath.Join(me.path, "tmp"), "block_journal_")
	if err != nil {
		return err
	}
	_ = os.Remove(file.Name())
	defer os.Remove(file.Name())
	_ = file.Close()

	writeAheadLog, err := journal.Open(journal.OpenArgs{Path: file.Name(), Create: true})
	if err != nil {
		me.stateErr = err
		return err
	}

	if err := writeAheadLog.Rename(canonicalPath); err != nil {
		me.stateErr = err
		return err
	}

	me.writeAheadLogs = slices.Insert(me.writeAheadLogs, 0, &writeAheadLog)
	return nil
}
