// Package blockstore is a durable, write-ahead-logged implementation of
// blockmap.BlockMap: an ordered map from sequentially-allocated uint64
// block keys to opaque byte blocks.
//
// It is adapted from an LSM engine originally built around arbitrary byte
// keys and upserts. A blockstore.Store narrows that down to the shape
// storage/lobid actually needs: keys are never chosen by the caller and
// never updated once written, only appended or removed. The on-disk
// machinery -- the write-ahead log, the sstable file format, the sparse
// index, and k-way-merge compaction -- is unchanged; only the key space
// and the absence of a background flush worker differ.
package blockstore

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/navijation/njlob/storage/blockmap"
	"github.com/navijation/njlob/storage/journal"
	"github.com/navijation/njlob/storage/sstable"
	"github.com/navijation/njlob/util"
)

// Store is a blockmap.BlockMap backed by a directory of write-ahead log and
// sstable files.
type Store struct {
	path           string
	indexChunkSize util.Optional[uint64]

	writeAheadLogs    []*journal.JournalFile
	sstables          []*sstable.SSTable
	memtables         []*memtable
	nextBlockKey      uint64
	nextSSTableNumber uint64
	nextJournalNumber uint64
	liveCount         int
	stateErr          error

	lock sync.RWMutex
}

var _ blockmap.BlockMap = (*Store)(nil)

type OpenArgs struct {
	Path           string
	Create         bool
	IndexChunkSize util.Optional[uint64]
}

// Open opens (or, with Create, initializes) a block store directory,
// replays any write-ahead log entries not yet covered by an sstable, and
// restores the next block key and the live block count by scanning the
// recovered state once.
func Open(args OpenArgs) (out *Store, err error) {
	var (
		writeAheadLogs []*journal.JournalFile
		sstables       []*sstable.SSTable
		maxSSTableNum  uint64
		maxJournalNum  uint64
	)

	defer func() {
		if err != nil {
			for _, sst := range sstables {
				_ = sst.Close()
			}
			for _, jrn := range writeAheadLogs {
				_ = jrn.Close()
			}
			if args.Create {
				_ = os.RemoveAll(args.Path)
			}
		}
	}()

	if args.Create {
		if err := os.Mkdir(args.Path, 0o755); err != nil {
			return nil, err
		}
		tmpJournal, err := journal.Open(journal.OpenArgs{
			Path:    writeAheadLogPath(args.Path, 1),
			Create:  true,
			StartAt: 0,
		})
		if err != nil {
			return nil, err
		}
		_ = tmpJournal.Close()
	} else {
		_ = os.RemoveAll(filepath.Join(args.Path, "tmp"))
	}

	if err := os.Mkdir(filepath.Join(args.Path, "tmp"), 0o755); err != nil {
		return nil, err
	}

	directoryEntries, err := os.ReadDir(args.Path)
	if err != nil {
		return nil, err
	}

	for _, dirent := range directoryEntries {
		baseName := dirent.Name()
		filename := filepath.Join(args.Path, baseName)
		switch {
		case baseName == "tmp":
			continue

		case dirent.IsDir():
			log.Printf("unexpected block store directory %q", baseName)

		case strings.HasSuffix(baseName, ".sst"):
			num, ok := getFileNumber(baseName, "block_table_", ".sst")
			if !ok {
				log.Printf("unexpected sstable file %q", baseName)
				continue
			}
			maxSSTableNum = max(maxSSTableNum, num)

			sstableFile, err := sstable.Open(sstable.OpenArgs{
				Path:           filename,
				IndexChunkSize: args.IndexChunkSize,
			})
			if err != nil {
				return nil, err
			}
			sstables = append(sstables, &sstableFile)

		case strings.HasSuffix(baseName, ".jrn"):
			num, ok := getFileNumber(baseName, "block_journal_", ".jrn")
			if !ok {
				log.Printf("unexpected journal file %q", baseName)
				continue
			}
			maxJournalNum = max(maxJournalNum, num)

			journalFile, err := journal.Open(journal.OpenArgs{Path: filename})
			if err != nil {
				return nil, err
			}
			writeAheadLogs = append(writeAheadLogs, &journalFile)

		default:
			log.Printf("unexpected block store file %q", baseName)
		}
	}

	slices.SortFunc(sstables, func(a, b *sstable.SSTable) int {
		n1, _ := getFileNumber(a.Path(), "block_table_", ".sst")
		n2, _ := getFileNumber(b.Path(), "block_table_", ".sst")
		return -(int(n1) - int(n2))
	})
	slices.SortFunc(writeAheadLogs, func(a, b *journal.JournalFile) int {
		n1, _ := getFileNumber(a.Path(), "block_journal_", ".jrn")
		n2, _ := getFileNumber(b.Path(), "block_journal_", ".jrn")
		return -(int(n1) - int(n2))
	})

	store := &Store{
		path:           args.Path,
		indexChunkSize: args.IndexChunkSize,

		writeAheadLogs:    writeAheadLogs,
		sstables:          sstables,
		memtables:         []*memtable{{}},
		nextSSTableNumber: maxSSTableNum + 1,
		nextJournalNumber: maxJournalNum + 1,
	}

	ctx := &dbCtx{}
	if err := store.replayWriteAheadLogs(ctx); err != nil {
		return nil, err
	}

	if err := store.recomputeStats(); err != nil {
		return nil, err
	}

	return store, nil
}

func (me *Store) Close() error {
	ctx := &dbCtx{}
	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	for _, jrn := range me.writeAheadLogs {
		_ = jrn.Close()
	}
	for _, sst := range me.sstables {
		_ = sst.Close()
	}
	return nil
}

func (me *Store) replayWriteAheadLogs(ctx *dbCtx) error {
	for i := range me.writeAheadLogs {
		jrn := me.writeAheadLogs[len(me.writeAheadLogs)-i-1]
		cursor := jrn.NewCursor(false)
		for {
			entry, hasNext, err := cursor.NextEntry()
			if err != nil {
				return err
			}
			if !hasNext {
				break
			}
			parsed, err := parseJournalEntry(&entry)
			if err != nil {
				return err
			}
			switch parsed := parsed.(type) {
			case putEntry:
				me.applyPutEntry(ctx, parsed)
			case flushEntry:
				if err := me.applyFlushEntry(ctx, parsed); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (me *Store) checkStateErrorSafe(ctx *dbCtx) error {
	ctx.RLock(&me.lock)
	defer ctx.RUnlock(&me.lock)
	return me.stateErr
}

func (me *Store) appendEntry(ctx *dbCtx, entry io.WriterTo) error {
	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	data, err := util.ToBytes(entry)
	if err != nil {
		return err
	}
	_, err = me.writeAheadLogs[0].AppendEntry(data)
	return err
}

func (me *Store) sstablePath(tableNumber uint64) string {
	return filepath.Join(me.path, fmt.Sprintf("block_table_%d.sst", tableNumber))
}

func (me *Store) writeAheadLogPath(journalNumber uint64) string {
	return writeAheadLogPath(me.path, journalNumber)
}

func writeAheadLogPath(dir string, journalNumber uint64) string {
	return filepath.Join(dir, fmt.Sprintf("block_journal_%d.jrn", journalNumber))
}

func getFileNumber(path, prefix, extension string) (num uint64, ok bool) {
	basename := filepath.Base(path)

	withoutExtension, ok := strings.CutSuffix(basename, extension)
	if !ok {
		return 0, false
	}
	withoutPrefix, ok := strings.CutPrefix(withoutExtension, prefix)
	if !ok {
		return 0, false
	}

	var n uint64
	if _, err := fmt.Sscanf(withoutPrefix, "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}

func encodeKey(key uint64) []byte {
	word := util.Uint64ToWord64(key)
	return word[:]
}

func decodeKey(key []byte) uint64 {
	var word util.Word64
	copy(word[:], key)
	return word.Uint64()
}

// recomputeStats walks every layer once (newest memtable through oldest
// sstable) to restore nextBlockKey and liveCount after Open. Block keys are
// only ever allocated once and never reused, so the highest key seen in any
// layer -- live or tombstoned -- bounds the next key to allocate.
func (me *Store) recomputeStats() error {
	seen := map[uint64]bool{} // key -> isDeleted, for the newest layer that mentions it
	var maxKey uint64
	sawAny := false

	noteKey := func(key uint64, isDeleted bool) {
		if !sawAny || key > maxKey {
			maxKey = key
		}
		sawAny = true
		if _, already := seen[key]; !already {
			seen[key] = isDeleted
		}
	}

	for _, mt := range me.memtables {
		for _, kvp := range mt.entries {
			noteKey(decodeKey(kvp.Key), kvp.IsDeleted)
		}
	}
	for _, sst := range me.sstables {
		for entry, err := range sst.Entries() {
			if err != nil {
				return err
			}
			noteKey(decodeKey(entry.Key), entry.IsDeleted)
		}
	}

	live := 0
	for _, isDeleted := range seen {
		if !isDeleted {
			live++
		}
	}

	me.liveCount = live
	if sawAny {
		me.nextBlockKey = maxKey + 1
	} else {
		me.nextBlockKey = 0
	}
	return nil
}
