package store

import "errors"

var (
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store: closed")

	// ErrReadOnly indicates a write was attempted inside View.
	ErrReadOnly = errors.New("store: transaction is read-only")

	// ErrEmptyKey indicates a zero-length key.
	ErrEmptyKey = errors.New("store: empty key")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("store: required parameter is nil")
)
