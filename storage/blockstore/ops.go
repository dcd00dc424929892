package blockstore

import (
	"github.com/navijation/njlob/storage/blockmap"
	"github.com/navijation/njlob/storage/keyvaluepair"
)

func (me *Store) Append(data []byte) (uint64, error) {
	ctx := &dbCtx{}
	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	if err := me.checkStateErrorSafe(ctx); err != nil {
		return 0, err
	}

	key := me.nextBlockKey

	// the memtable retains this slice past the call's return (see upsert
	// below), so it must not alias a buffer the caller might reuse or
	// mutate afterward.
	stored := append([]byte(nil), data...)

	entry := putEntry{
		StoredKeyValuePair: (&keyvaluepair.KeyValuePair{
			Key:   encodeKey(key),
			Value: stored,
		}).ToStoredKeyValuePair(),
	}
	if err := me.appendEntry(ctx, &entry); err != nil {
		me.stateErr = err
		return 0, err
	}

	me.applyPutEntry(ctx, entry)
	me.nextBlockKey++
	return key, nil
}

func (me *Store) Remove(key uint64) error {
	ctx := &dbCtx{}
	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	if err := me.checkStateErrorSafe(ctx); err != nil {
		return err
	}

	if kvp, exists, err := me.lookupLocked(key); err != nil {
		return err
	} else if !exists || kvp.IsDeleted {
		return blockmap.ErrNotFound
	}

	entry := putEntry{
		StoredKeyValuePair: (&keyvaluepair.KeyValuePair{
			Key:       encodeKey(key),
			IsDeleted: true,
		}).ToStoredKeyValuePair(),
	}
	if err := me.appendEntry(ctx, &entry); err != nil {
		me.stateErr = err
		return err
	}

	me.applyPutEntry(ctx, entry)
	return nil
}

func (me *Store) applyPutEntry(ctx *dbCtx, entry putEntry) {
	ctx.Lock(&me.lock)
	defer ctx.Unlock(&me.lock)

	kvp := entry.StoredKeyValuePair.ToKeyValuePair()

	_, existed, _ := me.lookupLocked(decodeKey(kvp.Key))
	me.memtables[0].upsert(kvp)

	switch {
	case !existed && !kvp.IsDeleted:
		me.liveCount++
	case existed && kvp.IsDeleted:
		me.liveCount--
	}
}

func (me *Store) Get(key uint64) ([]byte, error) {
	me.lock.RLock()
	defer me.lock.RUnlock()

	kvp, exists, err := me.lookupLocked(key)
	if err != nil {
		return nil, err
	}
	if !exists || kvp.IsDeleted {
		return nil, blockmap.ErrNotFound
	}
	return kvp.Value, nil
}

// lookupLocked finds the most recently written record for key, searching
// the memtables newest-first and then the sstables newest-first, mirroring
// the precedence an LSM engine's layered lookup uses. Callers must already
// hold at least a read lock.
func (me *Store) lookupLocked(key uint64) (out keyvaluepair.KeyValuePair, exists bool, _ error) {
	encoded := encodeKey(key)

	for _, mt := range me.memtables {
		if kvp, ok := mt.lookup(encoded); ok {
			return kvp, true, nil
		}
	}

	for _, sst := range me.sstables {
		entry, ok, err := sst.LookupEntry(encoded)
		if err != nil {
			return out, false, err
		}
		if ok {
			return keyvaluepair.KeyValuePair{
				Key:       encoded,
				Value:     entry.Value,
				IsDeleted: entry.IsDeleted,
			}, true, nil
		}
	}

	return out, false, nil
}

func (me *Store) LastKey() (uint64, bool) {
	me.lock.RLock()
	defer me.lock.RUnlock()

	if me.nextBlockKey == 0 {
		return 0, false
	}
	return me.nextBlockKey - 1, true
}

func (me *Store) IsEmpty() bool {
	me.lock.RLock()
	defer me.lock.RUnlock()

	return me.liveCount == 0
}
