package lob

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanOrphans_NoOrphansWhenEveryBlockIsLive(t *testing.T) {
	store, _ := newTestStore(Config{MinBlockSize: 8, MaxBlockSize: 16})

	idA, err := store.Put(bytes.NewReader(randomBytes(40, 10)))
	require.NoError(t, err)
	idB, err := store.Put(bytes.NewReader(randomBytes(40, 11)))
	require.NoError(t, err)

	orphans, err := store.ScanOrphans([][]byte{idA, idB})
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestScanOrphans_FindsBlocksNotReachableFromAnyGivenID(t *testing.T) {
	store, _ := newTestStore(Config{MinBlockSize: 8, MaxBlockSize: 16})

	idA, err := store.Put(bytes.NewReader(randomBytes(40, 12)))
	require.NoError(t, err)
	idB, err := store.Put(bytes.NewReader(randomBytes(40, 13)))
	require.NoError(t, err)

	bMaxKey, err := store.MaxBlockKey(idB)
	require.NoError(t, err)

	// idB's blocks are reachable only from idB; omitting it from the live
	// set means every block it reached should come back as orphaned.
	orphans, err := store.ScanOrphans([][]byte{idA})
	require.NoError(t, err)
	require.NotEmpty(t, orphans)

	aMaxKey, err := store.MaxBlockKey(idA)
	require.NoError(t, err)
	for _, key := range orphans {
		assert.Greater(t, int64(key), aMaxKey, "orphaned keys should all belong to idB's range")
	}
	assert.LessOrEqual(t, int64(orphans[len(orphans)-1]), bMaxKey)
}

func TestScanOrphans_NoLiveIDsOrphansEverything(t *testing.T) {
	store, blocks := newTestStore(Config{MinBlockSize: 8, MaxBlockSize: 16})

	_, err := store.Put(bytes.NewReader(randomBytes(64, 14)))
	require.NoError(t, err)

	orphans, err := store.ScanOrphans(nil)
	require.NoError(t, err)

	last, ok := blocks.LastKey()
	require.True(t, ok)
	assert.EqualValues(t, last+1, len(orphans))
}

func TestScanOrphans_EmptyMapReturnsNil(t *testing.T) {
	store, _ := newTestStore(DefaultConfig())

	orphans, err := store.ScanOrphans(nil)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
