package lobid

import (
	"fmt"
	"iter"
)

// Walk parses id into a sequence of records, in order. It performs no
// block-map reads; indirect records are yielded as-is (TotalLen, Key), not
// expanded. An error from the yielded error value ends iteration; the
// caller's range should stop on the first non-nil error, matching the
// convention storage/sstable.SSTable.Entries already uses for iter.Seq2
// walks over a length-prefixed binary format.
func Walk(id []byte) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		remaining := id
		for len(remaining) > 0 {
			rec, tail, err := ReadRecord(remaining)
			if err != nil {
				yield(Record{}, err)
				return
			}
			remaining = tail
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// ReadRecord parses a single record from the front of buf, returning the
// unconsumed remainder. Used by a reader that needs to splice a nested id's
// bytes ahead of the remaining outer bytes mid-walk, which a plain Walk
// cannot express since it owns the whole buffer for the length of the
// iteration.
func ReadRecord(buf []byte) (rec Record, tail []byte, err error) {
	c := NewCursor(buf)

	tagByte, err := c.ReadByte()
	if err != nil {
		return Record{}, nil, err
	}

	switch Tag(tagByte) {
	case TagInline:
		n, err := ReadUvarint(c)
		if err != nil {
			return Record{}, nil, err
		}
		data, err := c.ReadN(int(n))
		if err != nil {
			return Record{}, nil, err
		}
		return Record{Kind: KindInline, Inline: data}, buf[c.Pos():], nil

	case TagBlockRef:
		n, err := ReadUvarint(c)
		if err != nil {
			return Record{}, nil, err
		}
		key, err := ReadUvarlong(c)
		if err != nil {
			return Record{}, nil, err
		}
		return Record{Kind: KindBlockRef, Len: n, Key: key}, buf[c.Pos():], nil

	case TagIndirect:
		totalLen, err := ReadUvarlong(c)
		if err != nil {
			return Record{}, nil, err
		}
		key, err := ReadUvarlong(c)
		if err != nil {
			return Record{}, nil, err
		}
		return Record{Kind: KindIndirect, TotalLen: totalLen, Key: key}, buf[c.Pos():], nil

	default:
		return Record{}, nil, fmt.Errorf("%w: unknown record tag %d", ErrMalformedID, tagByte)
	}
}

// Length sums the declared length of every top-level record in id. It never
// reads the block map: an indirect record contributes its recorded
// TotalLen without resolving the nested id it points at.
func Length(id []byte) (uint64, error) {
	var total uint64
	for rec, err := range Walk(id) {
		if err != nil {
			return 0, err
		}
		total += rec.DeclaredLen()
	}
	return total, nil
}
