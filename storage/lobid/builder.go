package lobid

import "bytes"

// Builder is a growable, append-only buffer for constructing an id one
// record at a time. It performs no validation beyond what the varint
// encoders enforce.
type Builder struct {
	buf bytes.Buffer
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AppendInline writes a tag-0 record holding data verbatim inside the id.
func (b *Builder) AppendInline(data []byte) {
	b.buf.WriteByte(byte(TagInline))
	WriteUvarint(&b.buf, uint32(len(data)))
	b.buf.Write(data)
}

// AppendBlockRef writes a tag-1 record pointing at a single block.
func (b *Builder) AppendBlockRef(length uint32, key uint64) {
	b.buf.WriteByte(byte(TagBlockRef))
	WriteUvarint(&b.buf, length)
	WriteUvarlong(&b.buf, key)
}

// AppendIndirect writes a tag-2 record pointing at a nested id stored as a
// block.
func (b *Builder) AppendIndirect(totalLen uint64, key uint64) {
	b.buf.WriteByte(byte(TagIndirect))
	WriteUvarlong(&b.buf, totalLen)
	WriteUvarlong(&b.buf, key)
}

// AppendRaw appends the bytes of an already-built id verbatim, implementing
// id concatenation.
func (b *Builder) AppendRaw(id []byte) {
	b.buf.Write(id)
}

// Bytes returns the id built so far. The returned slice aliases the
// builder's internal buffer and must be treated as read-only by the
// caller.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of id bytes written so far.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Reset discards everything written so far.
func (b *Builder) Reset() {
	b.buf.Reset()
}
