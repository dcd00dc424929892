package lob

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_ReadByteWalksInlineRecord(t *testing.T) {
	store, _ := newTestStore(DefaultConfig())

	data := []byte("hello world")
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)

	r, err := store.GetInputStream(id)
	require.NoError(t, err)
	defer r.Close()

	var got []byte
	for {
		b, ok, err := r.ReadByte()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, b)
	}
	assert.Equal(t, data, got)
}

func TestReader_SmallReadsAcrossBlockBoundary(t *testing.T) {
	store, _ := newTestStore(Config{MinBlockSize: 8, MaxBlockSize: 16})

	data := randomBytes(64, 7)
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)

	r, err := store.GetInputStream(id)
	require.NoError(t, err)
	defer r.Close()

	var got []byte
	buf := make([]byte, 3) // deliberately not a multiple of the block size
	for {
		n, err := r.ReadInto(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, data, got)
}

func TestReader_SkipBeyondEndClampsToRemaining(t *testing.T) {
	store, _ := newTestStore(DefaultConfig())

	data := randomBytes(50, 8)
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)

	r, err := store.GetInputStream(id)
	require.NoError(t, err)
	defer r.Close()

	skipped, err := r.Skip(1000)
	require.NoError(t, err)
	assert.EqualValues(t, 50, skipped)

	n, err := r.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestReader_RecursesThroughMultipleIndirectionLevels(t *testing.T) {
	store, blocks := newTestStore(Config{MinBlockSize: 32, MaxBlockSize: 64})

	data := randomBytes(20*1024, 9)
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)

	maxKey, err := store.MaxBlockKey(id)
	require.NoError(t, err)
	last, ok := blocks.LastKey()
	require.True(t, ok)
	assert.EqualValues(t, last, maxKey, "max_block_key must equal the largest key actually appended")

	readBack, err := io.ReadAll(mustOpen(t, store, id))
	require.NoError(t, err)
	assert.Equal(t, data, readBack)
}

func TestReader_CloseThenReadReturnsEOF(t *testing.T) {
	store, _ := newTestStore(DefaultConfig())

	id, err := store.Put(bytes.NewReader([]byte("some data")))
	require.NoError(t, err)

	r, err := store.GetInputStream(id)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	n, err := r.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func TestReader_EmptyIDHasZeroLength(t *testing.T) {
	store, _ := newTestStore(DefaultConfig())

	id, err := store.Put(bytes.NewReader(nil))
	require.NoError(t, err)

	r, err := store.GetInputStream(id)
	require.NoError(t, err)
	defer r.Close()

	assert.EqualValues(t, 0, r.Length())

	n, err := r.Read(make([]byte, 4))
	assert.Equal(t, 0, n)
	assert.Equal(t, io.EOF, err)
}

func mustOpen(t *testing.T, store *Store, id []byte) *Reader {
	t.Helper()
	r, err := store.GetInputStream(id)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}
