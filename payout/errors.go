package payout

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("payout: required parameter is nil")

	// ErrRecipientRejected indicates the recipient refused the transfer.
	ErrRecipientRejected = errors.New("payout: recipient rejected transfer")

	// ErrInsufficientFunds indicates the treasury outputs cannot cover amount and fee.
	ErrInsufficientFunds = errors.New("payout: insufficient treasury funds")

	// ErrDustAmount indicates an amount below DustLimit.
	ErrDustAmount = errors.New("payout: amount below dust limit")

	// ErrInvalidUTXO indicates a node-reported output could not be used.
	ErrInvalidUTXO = errors.New("payout: invalid utxo")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("payout: script build failed")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("payout: signing failed")

	// ErrInvalidMemo indicates the memo exceeds MaxMemoLen.
	ErrInvalidMemo = errors.New("payout: invalid memo")
)
