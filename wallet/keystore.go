package wallet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// keystoreFileName is the sealed seed inside the data directory.
const keystoreFileName = "keystore.enc"

// KeystorePath returns the keystore path inside dataDir.
func KeystorePath(dataDir string) string {
	return filepath.Join(dataDir, keystoreFileName)
}

// Exists reports whether a keystore file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Create seals the seed of mnemonic under password and writes it to path.
// An existing keystore is never replaced.
func Create(path, mnemonic, password string) error {
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}
	sealed, err := SealSeed(seed, password)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("wallet: create dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeystoreExists, path)
		}
		return fmt.Errorf("wallet: create keystore: %w", err)
	}
	if _, err := f.Write(sealed); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("wallet: write keystore: %w", err)
	}
	return f.Close()
}

// Load opens the keystore at path.
func Load(path, password string, mainnet bool) (*Wallet, error) {
	sealed, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeystoreNotFound, path)
		}
		return nil, fmt.Errorf("wallet: read keystore: %w", err)
	}
	seed, err := OpenSeed(sealed, password)
	if err != nil {
		return nil, err
	}
	return NewWallet(seed, mainnet)
}
