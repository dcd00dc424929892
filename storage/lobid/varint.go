package lobid

import (
	"bytes"
	"fmt"
)

// Varints here use the same 7-bits-per-byte, continuation-bit-in-the-high-
// order-bit layout as protobuf/LEB128 and Go's own encoding/binary.Uvarint.
// Nothing in this repo needs to interoperate with previously persisted ids
// from another implementation, so this is a greenfield choice (spec allows
// any single consistent variant); it was picked because it's the variant
// already familiar from the rest of the example pack (see
// other_examples/xmh1011-go-lsm__varint.go, other_examples/intellect4all-
// storage-engines__varint.go) and from the standard library itself.
//
// Writes are always canonical (minimal byte count). Reads tolerate overlong
// encodings (extra continuation bytes encoding leading zero bits) but
// reject a value that needs more bytes than the target width allows.

const (
	maxVarintBytes  = 5  // ceil(32/7)
	maxVarlongBytes = 10 // ceil(64/7)
)

// WriteUvarint appends v to buf using a canonical varint encoding.
func WriteUvarint(buf *bytes.Buffer, v uint32) {
	writeUvarintRaw(buf, uint64(v))
}

// WriteUvarlong appends v to buf using a canonical varint encoding.
func WriteUvarlong(buf *bytes.Buffer, v uint64) {
	writeUvarintRaw(buf, v)
}

func writeUvarintRaw(buf *bytes.Buffer, v uint64) {
	for v >= 0x80 {
		buf.WriteByte(byte(v) | 0x80)
		v >>= 7
	}
	buf.WriteByte(byte(v))
}

// ReadUvarint reads a varint-encoded uint32 from c, advancing it by the
// exact number of bytes consumed.
func ReadUvarint(c *Cursor) (uint32, error) {
	v, err := readUvarintRaw(c, maxVarintBytes)
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFFFF {
		return 0, fmt.Errorf("%w: varint overflows 32 bits", ErrMalformedID)
	}
	return uint32(v), nil
}

// ReadUvarlong reads a varint-encoded uint64 from c, advancing it by the
// exact number of bytes consumed.
func ReadUvarlong(c *Cursor) (uint64, error) {
	return readUvarintRaw(c, maxVarlongBytes)
}

func readUvarintRaw(c *Cursor, maxBytes int) (uint64, error) {
	var v uint64
	var shift uint
	for i := 0; i < maxBytes; i++ {
		b, err := c.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("%w: truncated varint: %v", ErrMalformedID, err)
		}
		if b < 0x80 {
			return v | uint64(b)<<shift, nil
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
	}
	return 0, fmt.Errorf("%w: varint uses more than %d continuation bytes", ErrMalformedID, maxBytes)
}
