package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

// BoltStore persists state in a bbolt database. bbolt admits a single writer
// at a time, which gives Update its serialized, all-or-nothing behaviour.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path", ErrNilParam)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// View runs fn in a read-only bbolt transaction.
func (s *BoltStore) View(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: view func", ErrNilParam)
	}
	err := s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
	return mapBoltErr(err)
}

// Update runs fn in a read/write bbolt transaction. bbolt rolls the
// transaction back when fn returns an error.
func (s *BoltStore) Update(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: update func", ErrNilParam)
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
	return mapBoltErr(err)
}

func mapBoltErr(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return err
}

// boltTx adapts *bbolt.Tx to Tx.
type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) Get(bucket, key []byte) []byte {
	b := t.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	return b.Get(key)
}

func (t *boltTx) Put(bucket, key, value []byte) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	b, err := t.tx.CreateBucketIfNotExists(bucket)
	if err != nil {
		return fmt.Errorf("store: create bucket %q: %w", bucket, err)
	}
	if value == nil {
		value = []byte{}
	}
	if err := b.Put(key, value); err != nil {
		return fmt.Errorf("store: put %q: %w", bucket, err)
	}
	return nil
}

func (t *boltTx) Delete(bucket, key []byte) error {
	if !t.tx.Writable() {
		return ErrReadOnly
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	b := t.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	if err := b.Delete(key); err != nil {
		return fmt.Errorf("store: delete %q: %w", bucket, err)
	}
	return nil
}

func (t *boltTx) Scan(bucket, prefix []byte, fn func(key, value []byte) error) error {
	b := t.tx.Bucket(bucket)
	if b == nil {
		return nil
	}
	c := b.Cursor()
	var k, v []byte
	if len(prefix) == 0 {
		k, v = c.First()
	} else {
		k, v = c.Seek(prefix)
	}
	for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (t *boltTx) Writable() bool { return t.tx.Writable() }
