// Package lobid implements the wire format of a LOB stream id: a
// concatenation of tagged, length-prefixed records that together describe
// where the bytes of a stream live (inline in the id itself, in a single
// block, or in a further id nested inside a block).
//
// This package only ever touches id bytes and, for the walks that follow
// block references (MaxBlockKey, Remove, ReachableKeys), a caller-supplied
// block getter or remover; it never decides how or when to store anything,
// that's storage/blockstore and the lob package's job.
package lobid

import "errors"

// ErrMalformedID is returned when an id's bytes cannot be parsed: an
// unrecognized tag byte, or a varint/varlong that runs past the end of the
// id or uses more continuation bytes than its target integer width permits.
var ErrMalformedID = errors.New("lobid: malformed id")
