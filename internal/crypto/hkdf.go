package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Subkey purposes. Secrets get one subkey per category.
const (
	PurposeFiles  = "files"
	PurposeVerify = "verify"
)

// SecretPurpose is the HKDF info for a secret category.
func SecretPurpose(category string) string {
	return "secrets:" + category
}

// DeriveSubkey derives a 256-bit subkey from the master key for one purpose.
// Uses HKDF-SHA256 with the vault salt and the purpose as info.
func DeriveSubkey(masterKey, salt []byte, purpose string) ([]byte, error) {
	r := hkdf.New(sha256.New, masterKey, salt, []byte(purpose))
	subkey := make([]byte, keyLen)
	if _, err := io.ReadFull(r, subkey); err != nil {
		return nil, fmt.Errorf("deriving subkey for %s: %w", purpose, err)
	}
	return subkey, nil
}
