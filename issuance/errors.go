package issuance

import (
	"errors"

	"github.com/bitfsorg/libmint-go/revert"
)

// Rejections. Error() returns the reason text unchanged.
var (
	ErrInvalidMintAmount    = revert.New("Invalid mint amount!")
	ErrContractPaused       = revert.New("The contract is paused!")
	ErrMaxSupplyExceeded    = revert.New("Max supply exceeded!")
	ErrNotWhitelisted       = revert.New("User is not whitelisted!")
	ErrExceedsMaxMintAmount = revert.New("Mint over max mint amount!")
	ErrInsufficientFunds    = revert.New("Insufficient funds!")

	// ErrUnauthorized is returned when a non-administrator calls a privileged operation.
	ErrUnauthorized = revert.New("Ownable: caller is not the owner")

	// ErrTransferFailed is returned when the payout rejects a withdrawal.
	ErrTransferFailed = revert.New("Transfer failed!")

	// ErrInvalidAdmin is returned when administration is handed to the zero address.
	ErrInvalidAdmin = revert.New("Ownable: new owner is the zero address")

	// ErrMintToZeroAddress is returned when assets would be granted to the zero address.
	ErrMintToZeroAddress = revert.New("ERC721: mint to the zero address")
)

var (
	// ErrAlreadyDeployed indicates the store already holds a deployment.
	ErrAlreadyDeployed = errors.New("issuance: already deployed")

	// ErrNotDeployed indicates the store holds no deployment.
	ErrNotDeployed = errors.New("issuance: not deployed")

	// ErrInvalidStage indicates an unknown sale stage value.
	ErrInvalidStage = errors.New("issuance: invalid stage")

	// ErrInvalidRecord indicates a stored record could not be decoded.
	ErrInvalidRecord = errors.New("issuance: invalid record")

	// ErrNoPayout indicates Withdraw was called on a controller with no payout.
	ErrNoPayout = errors.New("issuance: no payout configured")

	// ErrPoolOverflow indicates the payment pool would exceed 64 bits.
	ErrPoolOverflow = errors.New("issuance: payment pool overflow")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("issuance: required parameter is nil")
)
