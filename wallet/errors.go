package wallet

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("wallet: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrInvalidRole indicates an unknown key role.
	ErrInvalidRole = errors.New("wallet: invalid key role")

	// ErrIndexOutOfRange indicates a key index at or above the BIP32 hardened offset.
	ErrIndexOutOfRange = errors.New("wallet: key index exceeds maximum (2^31-1)")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")

	// ErrDecryptionFailed indicates wrong password or corrupted keystore data.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed (wrong password or corrupted data)")

	// ErrChecksumMismatch indicates seed checksum verification failed after decryption.
	ErrChecksumMismatch = errors.New("wallet: seed checksum mismatch")

	// ErrInvalidKeystore indicates the file is not a keystore this package wrote.
	ErrInvalidKeystore = errors.New("wallet: invalid keystore file")

	// ErrKeystoreExists indicates Create would overwrite an existing keystore.
	ErrKeystoreExists = errors.New("wallet: keystore already exists")

	// ErrKeystoreNotFound indicates no keystore file at the path.
	ErrKeystoreNotFound = errors.New("wallet: keystore not found")
)
