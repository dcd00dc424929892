package lob

import (
	"io"

	"github.com/navijation/njlob/storage/lobid"
)

// Reader presents an id as a sequential byte stream. It is single-owner:
// callers must not share one between goroutines.
type Reader struct {
	store *Store

	length uint64
	pos    uint64

	// remaining is the not-yet-consumed tail of the id's record stream;
	// advancing past an indirect record splices the nested id's bytes
	// ahead of it rather than recursing, so arbitrarily deep indirection
	// costs no call-stack depth.
	remaining []byte

	// pendingSkip is bytes requested by Skip that the current sub-buffer
	// could not absorb; the next advance drops whole records to satisfy it
	// before yielding a sub-buffer.
	pendingSkip uint64

	// sub is a view into the current record's payload not yet returned to
	// the caller: inline records alias the id bytes directly, block-ref
	// and indirect-nested blocks alias a freshly fetched block.
	sub []byte

	closed bool
}

// GetInputStream opens id for reading. The id's declared Length is computed
// up front (a pure, block-map-free walk); resolving the payload itself is
// lazy.
func (s *Store) GetInputStream(id []byte) (*Reader, error) {
	length, err := lobid.Length(id)
	if err != nil {
		return nil, err
	}
	return &Reader{store: s, length: length, remaining: id}, nil
}

// Length returns the stream's total byte count, fixed at open time.
func (r *Reader) Length() uint64 {
	return r.length
}

// ReadByte reads a single byte, or returns (0, false, nil) at end of
// stream.
func (r *Reader) ReadByte() (b byte, ok bool, err error) {
	var buf [1]byte
	n, err := r.ReadInto(buf[:])
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	return buf[0], true, nil
}

// ReadInto copies up to len(buf) bytes from the current sub-buffer into
// buf, so it can return fewer than len(buf) bytes at any record boundary;
// at end of stream it returns (0, nil). It never blocks longer than
// necessary to produce at least one byte, and never materializes more of
// the payload than the current sub-buffer already holds.
func (r *Reader) ReadInto(buf []byte) (int, error) {
	if len(buf) == 0 || r.closed {
		return 0, nil
	}

	for len(r.sub) == 0 {
		hasNext, err := r.advance()
		if err != nil {
			return 0, err
		}
		if !hasNext {
			return 0, nil
		}
	}

	n := copy(buf, r.sub)
	r.sub = r.sub[n:]
	r.pos += uint64(n)
	return n, nil
}

// Read implements io.Reader on top of ReadInto, translating its
// never-blocks-past-one-sub-buffer "(0, nil) at end of stream" convention
// into the stdlib's "(0, io.EOF)", so a Reader can be passed to io.Copy,
// io.ReadAll, and similar helpers.
func (r *Reader) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n, err := r.ReadInto(buf)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Skip advances the stream by up to n bytes without returning them,
// clamped to the bytes remaining. Skip(0) always returns 0.
func (r *Reader) Skip(n uint64) (uint64, error) {
	if n == 0 || r.closed {
		return 0, nil
	}

	remaining := r.length - r.pos
	if n > remaining {
		n = remaining
	}

	skipped := uint64(0)
	if len(r.sub) > 0 {
		fromSub := n
		if fromSub > uint64(len(r.sub)) {
			fromSub = uint64(len(r.sub))
		}
		r.sub = r.sub[fromSub:]
		skipped += fromSub
	}

	leftover := n - skipped
	r.pendingSkip += leftover
	r.pos += n

	// drain whole records to account for the leftover now, rather than
	// waiting for the next ReadInto, so Length()-r.pos stays accurate even
	// if the caller never reads again. advance already stops as soon as it
	// either lands on a sub-buffer or runs out of records, so one call
	// fully resolves pendingSkip against what's currently available.
	if r.pendingSkip > 0 && len(r.remaining) > 0 {
		if _, err := r.advance(); err != nil {
			return skipped, err
		}
	}

	return n, nil
}

// Close drops the current sub-buffer and forwards the stream to its end.
// Subsequent reads return 0, nil.
func (r *Reader) Close() error {
	r.sub = nil
	r.remaining = nil
	r.pendingSkip = 0
	r.pos = r.length
	r.closed = true
	return nil
}

// advance walks the record stream until it finds a sub-buffer with at
// least one unskipped byte, or runs out of records.
func (r *Reader) advance() (hasNext bool, err error) {
	for len(r.remaining) > 0 {
		rec, tail, err := lobid.ReadRecord(r.remaining)
		if err != nil {
			return false, err
		}
		r.remaining = tail

		switch rec.Kind {
		case lobid.KindInline:
			n := uint64(len(rec.Inline))
			if r.pendingSkip >= n {
				r.pendingSkip -= n
				continue
			}
			r.sub = rec.Inline[r.pendingSkip:]
			r.pendingSkip = 0
			return true, nil

		case lobid.KindBlockRef:
			n := uint64(rec.Len)
			if r.pendingSkip >= n {
				r.pendingSkip -= n
				continue
			}
			data, err := r.store.blocks.Get(rec.Key)
			if err != nil {
				return false, wrapIOError(err)
			}
			r.sub = data[r.pendingSkip:]
			r.pendingSkip = 0
			return true, nil

		case lobid.KindIndirect:
			n := rec.TotalLen
			if r.pendingSkip >= n {
				r.pendingSkip -= n
				continue
			}
			nested, err := r.store.blocks.Get(rec.Key)
			if err != nil {
				return false, wrapIOError(err)
			}
			spliced := make([]byte, 0, len(nested)+len(r.remaining))
			spliced = append(spliced, nested...)
			spliced = append(spliced, r.remaining...)
			r.remaining = spliced
		}
	}

	return false, nil
}
