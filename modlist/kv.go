package modlist

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

/*
Key structure:
Name × \x00 × Position
- Name is the list name.
- Position is a big-endian uint64 so that keys sort in list order.
The key with an empty position marks that the list exists, even when empty.
Values hold the entries; the marker's value is empty.
*/

// KV is a backend storing lists in a Badger database.
type KV struct {
	db *badger.DB
}

var _ Backend = (*KV)(nil)

// NewKV creates a backend in db.
// The db must remain open for the lifetime of the backend.
func NewKV(db *badger.DB) *KV {
	return &KV{db: db}
}

func kvPrefix(name string) []byte {
	b := make([]byte, 0, len(name)+1+8)
	b = append(b, name...)
	return append(b, 0)
}

func kvKey(name string, pos int) []byte {
	return binary.BigEndian.AppendUint64(kvPrefix(name), uint64(pos))
}

// Load loads a list in order.
func (kv *KV) Load(ctx context.Context, name string) ([]string, error) {
	var r []string
	err := kv.db.View(func(txn *badger.Txn) error {
		pre := kvPrefix(name)
		if _, err := txn.Get(pre); err != nil {
			if err == badger.ErrKeyNotFound {
				return fmt.Errorf("list %s: %w", name, ErrNotExist)
			}
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = pre
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(pre); it.ValidForPrefix(pre); it.Next() {
			item := it.Item()
			if len(item.Key()) == len(pre) {
				continue
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("couldn't read entry of %s: %w", name, err)
			}
			r = append(r, string(v))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't load %s: %w", name, err)
	}
	return r, nil
}

// Save replaces a list in a single transaction.
func (kv *KV) Save(ctx context.Context, name string, entries []string) error {
	err := kv.db.Update(func(txn *badger.Txn) error {
		pre := kvPrefix(name)
		opts := badger.IteratorOptions{Prefix: pre}
		it := txn.NewIterator(opts)
		var old [][]byte
		for it.Seek(pre); it.ValidForPrefix(pre); it.Next() {
			old = append(old, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range old {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		if err := txn.Set(pre, nil); err != nil {
			return err
		}
		for i, e := range entries {
			if err := txn.Set(kvKey(name, i), []byte(e)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("couldn't save %s: %w", name, err)
	}
	return nil
}
