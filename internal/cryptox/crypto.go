// Package cryptox seals persisted state values at rest.
//
// Keys are derived from a user-supplied passphrase with Argon2id and values
// are sealed with XChaCha20-Poly1305. A sealed value is laid out as
//
//	version(1) || nonce(24) || ciphertext+tag
//
// so it can be stored as an opaque blob by any key/value backend.
package cryptox

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const sealVersion byte = 1

var (
	// ErrInvalidKey is returned when the key is not KeySize bytes long.
	ErrInvalidKey = errors.New("invalid key size")
	// ErrOpen is returned when a sealed value is truncated, has an unknown
	// version or fails authentication.
	ErrOpen = errors.New("cannot open sealed value")
)

// KeySize is the length of keys accepted by Seal and Open.
const KeySize = chacha20poly1305.KeySize

// DeriveKey stretches passphrase into a KeySize key. The salt is hashed so
// callers may pass any stable identifier (e.g. the store namespace).
func DeriveKey(passphrase []byte, salt []byte) []byte {
	s := sha256.Sum256(salt)
	return argon2.IDKey(passphrase, s[:], 1, 64*1024, 4, KeySize)
}

// Seal encrypts plaintext with key. additional is authenticated but not
// encrypted; the stores bind it to the record key so blobs cannot be swapped
// between keys.
func Seal(key, plaintext, additional []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	out := append([]byte{sealVersion}, nonce...)
	return aead.Seal(out, nonce, plaintext, additional), nil
}

// Open reverses Seal.
func Open(key, sealed, additional []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < 1+aead.NonceSize()+aead.Overhead() || sealed[0] != sealVersion {
		return nil, ErrOpen
	}

	nonce := sealed[1 : 1+aead.NonceSize()]
	plaintext, err := aead.Open(nil, nonce, sealed[1+aead.NonceSize():], additional)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return chacha20poly1305.NewX(key)
}
