// Package store provides the transactional key/value state shared by the
// ownership registry and the issuance controller.
//
// Every mutation runs inside Update. An Update either commits all of its
// writes or none of them, and Updates never overlap. View observes a
// consistent snapshot.
package store

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

// Tx is a view of the state inside a View or Update call. Slices returned by
// Get and Scan are only valid until the enclosing call returns.
type Tx interface {
	// Get returns the value stored under key, or nil when absent.
	Get(bucket, key []byte) []byte

	// Put stores value under key, creating the bucket if needed.
	Put(bucket, key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(bucket, key []byte) error

	// Scan calls fn for every key in bucket that starts with prefix, in
	// ascending byte order. A non-nil error from fn stops the scan.
	Scan(bucket, prefix []byte, fn func(key, value []byte) error) error

	// Writable reports whether the transaction accepts writes.
	Writable() bool
}

// Store runs read and read/write transactions.
type Store interface {
	// View runs fn against a read-only snapshot.
	View(fn func(Tx) error) error

	// Update runs fn with write access. If fn returns an error nothing it
	// wrote is kept.
	Update(fn func(Tx) error) error

	// Close releases the store.
	Close() error
}

// MemStore is an in-memory Store.
type MemStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
	closed  bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{buckets: make(map[string]map[string][]byte)}
}

// View runs fn against the committed state.
func (s *MemStore) View(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: view func", ErrNilParam)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{base: s.buckets})
}

// Update runs fn against a private write set and merges it into the
// committed state only when fn succeeds.
func (s *MemStore) Update(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: update func", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx := &memTx{
		base:     s.buckets,
		pending:  make(map[string]map[string][]byte),
		writable: true,
	}
	if err := fn(tx); err != nil {
		return err
	}

	for name, writes := range tx.pending {
		b, ok := s.buckets[name]
		if !ok {
			b = make(map[string][]byte)
			s.buckets[name] = b
		}
		for k, v := range writes {
			if v == nil {
				delete(b, k)
				continue
			}
			b[k] = v
		}
	}
	return nil
}

// Close marks the store closed. Further calls fail with ErrClosed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// memTx layers uncommitted writes over the committed buckets. A nil value in
// pending marks a deletion.
type memTx struct {
	base     map[string]map[string][]byte
	pending  map[string]map[string][]byte
	writable bool
}

func (t *memTx) Get(bucket, key []byte) []byte {
	if w, ok := t.pending[string(bucket)]; ok {
		if v, ok := w[string(key)]; ok {
			return v
		}
	}
	return t.base[string(bucket)][string(key)]
}

func (t *memTx) Put(bucket, key, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	w, ok := t.pending[string(bucket)]
	if !ok {
		w = make(map[string][]byte)
		t.pending[string(bucket)] = w
	}
	// Copy so callers may reuse their buffers; non-nil even when empty.
	v := make([]byte, len(value))
	copy(v, value)
	w[string(key)] = v
	return nil
}

func (t *memTx) Delete(bucket, key []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}
	w, ok := t.pending[string(bucket)]
	if !ok {
		w = make(map[string][]byte)
		t.pending[string(bucket)] = w
	}
	w[string(key)] = nil
	return nil
}

func (t *memTx) Scan(bucket, prefix []byte, fn func(key, value []byte) error) error {
	seen := make(map[string]struct{})
	var keys []string
	collect := func(m map[string][]byte) {
		for k := range m {
			if !bytes.HasPrefix([]byte(k), prefix) {
				continue
			}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	collect(t.pending[string(bucket)])
	collect(t.base[string(bucket)])
	sort.Strings(keys)

	for _, k := range keys {
		v := t.Get(bucket, []byte(k))
		if v == nil {
			continue // deleted in this transaction
		}
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) Writable() bool { return t.writable }
