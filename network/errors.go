package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates the node rejected the RPC credentials.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrTxNotFound indicates the node does not know the transaction.
	ErrTxNotFound = errors.New("network: transaction not found")

	// ErrBroadcastRejected indicates the node refused the transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates a malformed or unexpected node response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrMissingConfig indicates no RPC endpoint could be resolved.
	ErrMissingConfig = errors.New("network: missing RPC configuration")
)
