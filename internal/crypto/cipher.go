package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const nonceLen = 12 // 96-bit nonce for GCM

// ErrCiphertext is returned when sealed data fails to open.
var ErrCiphertext = errors.New("decryption failed")

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return aead, nil
}

// Seal encrypts plaintext with AES-256-GCM under a random nonce and binds it
// to aad. Returns nonce || ciphertext+tag.
func Seal(key, plaintext, aad []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, nonceLen, nonceLen+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return aead.Seal(out, out[:nonceLen], plaintext, aad), nil
}

// Open reverses Seal. The same aad must be supplied.
func Open(key, data, aad []byte) ([]byte, error) {
	if len(data) < nonceLen+1 {
		return nil, errors.New("ciphertext too short")
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, data[:nonceLen], data[nonceLen:], aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	return plaintext, nil
}

// SealString seals a string value and returns base64 text for a TEXT column.
func SealString(key []byte, value string, aad []byte) (string, error) {
	data, err := Seal(key, []byte(value), aad)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// OpenString decodes base64 text and opens it.
func OpenString(key []byte, encoded string, aad []byte) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding base64: %w", err)
	}
	plaintext, err := Open(key, data, aad)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
