package blockstore

import (
	"fmt"
	"io"

	"github.com/navijation/njlob/storage/journal"
	"github.com/navijation/njlob/storage/keyvaluepair"
	"github.com/navijation/njlob/util"
)

type journalEntryType byte

const (
	journalEntryTypePut journalEntryType = iota
	journalEntryTypeFlush
)

func parseJournalEntry(entry *journal.JournalEntry) (any, error) {
	if len(entry.Content) == 0 {
		return nil, fmt.Errorf("journal entry is empty")
	}
	switch journalEntryType(entry.Content[0]) {
	case journalEntryTypePut:
		return util.ValueFromBytes[putEntry](entry.Content)
	case journalEntryTypeFlush:
		return util.ValueFromBytes[flushEntry](entry.Content)
	default:
		return nil, fmt.Errorf("unsupported block store journal entry type: %d", entry.Content[0])
	}
}

// putEntry records a single Append or Remove against a block key.
type putEntry struct {
	StoredKeyValuePair keyvaluepair.StoredKeyValuePair
}

// flushEntry records the creation of a new sstable covering everything in
// the memtable being replaced, along with the new write-ahead log that
// replaces the one being flushed.
type flushEntry struct {
	SSTableNumber uint64
	JournalNumber uint64

	// in-memory only: the memtable snapshot being flushed, populated by the
	// caller before dispatch and never (de)serialized.
	snapshot *memtable
}

func (me *putEntry) SizeOf() uint64 {
	return me.StoredKeyValuePair.SizeOf() + 1
}

func (me *putEntry) WriteTo(writer io.Writer) (n int64, _ error) {
	dn, err := writer.Write([]byte{byte(journalEntryTypePut)})
	n += int64(dn)
	if err != nil {
		return n, err
	}

	dn2, err := me.StoredKeyValuePair.WriteTo(writer)
	n += int64(dn2)
	return n, err
}

func (me *putEntry) ReadFrom(reader io.Reader) (n int64, _ error) {
	var byteBuf [1]byte
	dn, err := reader.Read(byteBuf[:])
	n += int64(dn)
	if err != nil {
		return n, err
	}

	dn2, err := me.StoredKeyValuePair.ReadFrom(reader)
	n += int64(dn2)
	return n, err
}

func (me *flushEntry) SizeOf() uint64 {
	return 1 + 8 + 8
}

func (me *flushEntry) WriteTo(writer io.Writer) (n int64, _ error) {
	dn, err := writer.Write([]byte{byte(journalEntryTypeFlush)})
	n += int64(dn)
	if err != nil {
		return n, err
	}

	dn, err = util.WriteUint64(writer, me.SSTableNumber)
	n += int64(dn)
	if err != nil {
		return n, err
	}

	dn, err = util.WriteUint64(writer, me.JournalNumber)
	n += int64(dn)
	return n, err
}

func (me *flushEntry) ReadFrom(reader io.Reader) (n int64, _ error) {
	var byteBuf [1]byte
	dn, err := reader.Read(byteBuf[:])
	n += int64(dn)
	if err != nil {
		return n, err
	}

	me.SSTableNumber, dn, err = util.ReadUint64(reader)
	n += int64(dn)
	if err != nil {
		return n, err
	}

	me.JournalNumber, dn, err = util.ReadUint64(reader)
	n += int64(dn)
	return n, err
}
