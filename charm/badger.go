// ABOUTME: Local BadgerDB key-value backend with the same surface as charm/kv
// ABOUTME: Used for offline installs and for isolated tests without a charm server

package charm

import (
	"github.com/dgraph-io/badger/v3"
)

// badgerKV wraps BadgerDB to provide the same interface as charm/kv.KV.
type badgerKV struct {
	db *badger.DB
}

func openBadger(dir string) (*badgerKV, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil) // badger's own logger is noisy on startup
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerKV{db: db}, nil
}

func (b *badgerKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (b *badgerKV) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerKV) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (b *badgerKV) Sync() error {
	return nil
}

func (b *badgerKV) Reset() error {
	return b.db.DropAll()
}

func (b *badgerKV) Close() error {
	return b.db.Close()
}
