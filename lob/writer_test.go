package lob

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/navijation/njlob/storage/blockmap/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(config Config) (*Store, *memory.Map) {
	blocks := memory.New()
	return New(blocks, config), blocks
}

func randomBytes(n int, seed int64) []byte {
	buf := make([]byte, n)
	_, _ = rand.New(rand.NewSource(seed)).Read(buf)
	return buf
}

// E1: a small input fits entirely inline, with no blocks appended at all.
func TestPut_SmallInputIsInline(t *testing.T) {
	store, blocks := newTestStore(DefaultConfig())

	data := randomBytes(100, 1)
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)

	_, ok := blocks.LastKey()
	assert.False(t, ok, "no block should have been appended for an inline-sized input")

	length, err := store.Length(id)
	require.NoError(t, err)
	assert.EqualValues(t, 100, length)

	readBack, err := readAll(t, store, id)
	require.NoError(t, err)
	assert.Equal(t, data, readBack)
}

// E2: an input past min_block_size but under max_block_size becomes a
// single block-ref record.
func TestPut_MidSizedInputIsSingleBlockRef(t *testing.T) {
	store, blocks := newTestStore(DefaultConfig())

	data := randomBytes(300, 2)
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)

	last, ok := blocks.LastKey()
	require.True(t, ok)
	assert.EqualValues(t, 0, last, "exactly one block should have been appended")

	readBack, err := readAll(t, store, id)
	require.NoError(t, err)
	assert.Equal(t, data, readBack)
}

// E3: an input spanning several max-size blocks under a small custom
// config produces one block-ref per chunk, and Skip lands on the right
// byte.
func TestPut_MultiBlockInputAndSkip(t *testing.T) {
	store, _ := newTestStore(Config{MinBlockSize: 256, MaxBlockSize: 1024})

	data := randomBytes(4096, 3)
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)

	length, err := store.Length(id)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, length)

	r, err := store.GetInputStream(id)
	require.NoError(t, err)
	defer r.Close()

	skipped, err := r.Skip(2050)
	require.NoError(t, err)
	assert.EqualValues(t, 2050, skipped)

	rest := make([]byte, 4096-2050)
	n, err := io.ReadFull(r, rest)
	require.NoError(t, err)
	assert.Equal(t, len(rest), n)
	assert.Equal(t, data[2050:], rest)
}

// E4: a large input collapses down to an id no bigger than twice
// min_block_size, regardless of how many blocks it took to store the
// payload.
func TestPut_LargeInputCollapsesId(t *testing.T) {
	const minBlockSize = 256
	store, blocks := newTestStore(Config{MinBlockSize: minBlockSize, MaxBlockSize: 1024})

	data := randomBytes(200*1024, 4)
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)

	assert.LessOrEqual(t, len(id), 2*minBlockSize)

	last, ok := blocks.LastKey()
	require.True(t, ok)
	assert.Greater(t, last, uint64(0), "a 200KiB input must have been chunked across several blocks")

	readBack, err := readAll(t, store, id)
	require.NoError(t, err)
	assert.Equal(t, data, readBack)
}

// E5: removing an id reclaims every block it reached.
func TestPut_RemoveReclaimsAllBlocks(t *testing.T) {
	store, blocks := newTestStore(DefaultConfig())

	data := randomBytes(10*1024*1024, 5)
	id, err := store.Put(bytes.NewReader(data))
	require.NoError(t, err)
	require.False(t, blocks.IsEmpty())

	require.NoError(t, store.Remove(id))
	assert.True(t, blocks.IsEmpty())
}

// E6: a read failure partway through a Put surfaces as an I/O error and
// rolls back every block already appended for that id.
func TestPut_InputErrorRollsBackAppendedBlocks(t *testing.T) {
	store, blocks := newTestStore(Config{MinBlockSize: 256, MaxBlockSize: 1024})

	failAfter := &failingReader{
		data:    randomBytes(8192, 6),
		failAt:  3000,
		failErr: errors.New("simulated read failure"),
	}

	_, err := store.Put(failAfter)
	require.Error(t, err)

	var ioErr *ErrIO
	assert.ErrorAs(t, err, &ioErr)
	assert.True(t, blocks.IsEmpty(), "every block appended before the failure must be rolled back")
}

func readAll(t *testing.T, store *Store, id []byte) ([]byte, error) {
	t.Helper()
	r, err := store.GetInputStream(id)
	require.NoError(t, err)
	defer r.Close()
	return io.ReadAll(r)
}

// failingReader serves data up to failAt bytes, then returns failErr.
type failingReader struct {
	data    []byte
	pos     int
	failAt  int
	failErr error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.pos >= f.failAt {
		return 0, f.failErr
	}
	n := copy(p, f.data[f.pos:f.failAt])
	f.pos += n
	return n, nil
}
