package lob

import (
	"io"
	"log"

	"github.com/navijation/njlob/storage/lobid"
)

// Put reads in to completion, without closing it, and returns a freshly
// built id. On any I/O failure, every block already appended to the block
// map for this id is removed on a best-effort basis before the error
// surfaces; a failure during that rollback is logged but never masks the
// original error.
func (s *Store) Put(in io.Reader) (id []byte, err error) {
	config := s.currentConfig()
	st := &putState{
		store:        s,
		in:           in,
		minBlockSize: config.MinBlockSize,
		maxBlockSize: config.MaxBlockSize,
	}

	defer func() {
		if err != nil {
			st.rollback()
		}
	}()

	builder := lobid.NewBuilder()
	level := 0
	for {
		eof, lerr := st.putLevel(builder, level)
		if lerr != nil {
			return nil, lerr
		}
		if eof {
			break
		}

		if uint64(builder.Len()) > st.maxBlockSize/2 {
			length, lerr := lobid.Length(builder.Bytes())
			if lerr != nil {
				return nil, lerr
			}
			if lerr := st.collapse(builder, length); lerr != nil {
				return nil, lerr
			}
			level++
		}
	}

	if uint64(builder.Len()) > 2*st.minBlockSize {
		length, lerr := lobid.Length(builder.Bytes())
		if lerr != nil {
			return nil, lerr
		}
		if lerr := st.collapse(builder, length); lerr != nil {
			return nil, lerr
		}
	}

	out := make([]byte, builder.Len())
	copy(out, builder.Bytes())
	return out, nil
}

// putState carries the per-Put configuration snapshot and rollback
// bookkeeping threaded through the recursive putLevel calls.
type putState struct {
	store        *Store
	in           io.Reader
	minBlockSize uint64
	maxBlockSize uint64

	appendedKeys []uint64
}

// putLevel is the recursive core of Put: at level 0 it consumes and emits
// exactly one chunk; at level>0 it repeatedly builds a nested id out of
// level-1 chunks, collapsing that nested id into a single indirect record
// once it grows past half of maxBlockSize, and splices whatever the nested
// id became into builder as one unit.
func (st *putState) putLevel(builder *lobid.Builder, level int) (eof bool, err error) {
	if level > 0 {
		nested := lobid.NewBuilder()
		for {
			innerEOF, err := st.putLevel(nested, level-1)
			if err != nil {
				return false, err
			}

			if uint64(nested.Len()) > st.maxBlockSize/2 {
				length, err := lobid.Length(nested.Bytes())
				if err != nil {
					return false, err
				}
				if err := st.collapse(nested, length); err != nil {
					return false, err
				}
				eof = innerEOF
				break
			}

			if innerEOF {
				eof = true
				break
			}
		}

		builder.AppendRaw(nested.Bytes())
		return eof, nil
	}

	buf := st.store.takeBuffer(st.maxBlockSize)
	n, rerr := readFullChunk(st.in, buf)
	if rerr != nil {
		return false, wrapIOError(rerr)
	}
	if n == 0 {
		st.store.offerBuffer(buf)
		return true, nil
	}

	if uint64(n) < st.minBlockSize {
		builder.AppendInline(buf[:n])
	} else {
		key, err := st.store.blocks.Append(buf[:n])
		if err != nil {
			return false, wrapIOError(err)
		}
		st.appendedKeys = append(st.appendedKeys, key)
		builder.AppendBlockRef(uint32(n), key)
	}

	eof = uint64(n) < st.maxBlockSize
	if eof {
		// the buffer was not filled, so this was the last chunk; both
		// AppendInline and the block map's Append copy what they keep, so
		// the buffer is safe to offer back for reuse.
		st.store.offerBuffer(buf)
	}
	return eof, nil
}

// collapse stores builder's current bytes as a single block and replaces
// builder's contents with one indirect record pointing at it, declaring
// declaredLength as the payload length the replaced bytes represented.
func (st *putState) collapse(builder *lobid.Builder, declaredLength uint64) error {
	key, err := st.store.blocks.Append(builder.Bytes())
	if err != nil {
		return wrapIOError(err)
	}
	st.appendedKeys = append(st.appendedKeys, key)

	builder.Reset()
	builder.AppendIndirect(declaredLength, key)
	return nil
}

func (st *putState) rollback() {
	for _, key := range st.appendedKeys {
		if err := st.store.blocks.Remove(key); err != nil {
			log.Printf("lob: rollback failed to remove block %d: %v", key, err)
		}
	}
}

// readFullChunk reads repeatedly from r until buf is completely filled or
// end-of-stream is observed, returning the number of bytes actually read.
// Reaching end-of-stream is not an error, even if buf was only partially
// filled; any other read error is returned as-is.
func readFullChunk(r io.Reader, buf []byte) (n int, err error) {
	for n < len(buf) {
		m, rerr := r.Read(buf[n:])
		n += m
		if rerr != nil {
			if rerr == io.EOF {
				return n, nil
			}
			return n, rerr
		}
	}
	return n, nil
}

func (s *Store) takeBuffer(size uint64) []byte {
	if p := s.nextBuffer.Swap(nil); p != nil {
		if buf := *p; uint64(len(buf)) == size {
			return buf
		}
	}
	return make([]byte, size)
}

func (s *Store) offerBuffer(buf []byte) {
	s.nextBuffer.CompareAndSwap(nil, &buf)
}
