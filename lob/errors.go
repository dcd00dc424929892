package lob

import (
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/navijation/njlob/storage/blockmap"
	"github.com/navijation/njlob/storage/lobid"
)

// ErrMalformedID is returned when an id's bytes do not parse: an unknown
// record tag, or a truncated varint/varlong.
var ErrMalformedID = lobid.ErrMalformedID

// ErrBlockNotFound is returned when a key referenced by an id has no entry
// in the underlying block map. Read operations never return this directly;
// they wrap it as ErrIO (see wrapIOError). Maintenance operations
// (MaxBlockKey, Remove) surface it as-is, since a caller performing
// maintenance needs to see BlockNotFound distinctly from a stream I/O
// failure.
var ErrBlockNotFound = stderrors.New("lob: block not found")

// ErrIO wraps a failure reading from the caller's input stream, or from the
// underlying block map while serving a read. The original error, including
// ErrBlockNotFound when applicable, is available via errors.Unwrap/Is.
type ErrIO struct {
	cause error
}

func (e *ErrIO) Error() string {
	return "lob: i/o error: " + e.cause.Error()
}

func (e *ErrIO) Unwrap() error {
	return e.cause
}

func wrapIOError(cause error) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&ErrIO{cause: translateBlockMapError(cause)})
}

// translateBlockMapError maps the underlying blockmap.BlockMap's not-found
// sentinel onto this package's own, so callers never need to import
// storage/blockmap just to compare errors.
func translateBlockMapError(cause error) error {
	if stderrors.Is(cause, blockmap.ErrNotFound) {
		return ErrBlockNotFound
	}
	return cause
}
