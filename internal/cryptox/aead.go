// Package cryptox implements the client-side cryptography of cryptnotes:
// password-based key derivation, the keypair envelope that protects a
// user's private key, and the note cipher.
//
// All symmetric encryption is AES-256-GCM with a fresh random 96-bit nonce
// per call. Every authentication failure surfaces as ErrDecryption, with no
// distinction between a wrong key and corrupted data.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// NonceSize is the GCM nonce length; stored as the "iv" of a record.
const NonceSize = 12

var (
	ErrDecryption = errors.New("message authentication failed")
	ErrInvalidKey = errors.New("invalid key size")
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext under key with a freshly generated nonce.
func seal(key, plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	return aead.Seal(nil, nonce, plaintext, aad), nonce, nil
}

// open reverses seal. Every failure, including a key of the wrong size,
// is reported as ErrDecryption.
func open(key, ciphertext, nonce, aad []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, ErrDecryption
	}
	if len(nonce) != aead.NonceSize() {
		return nil, ErrDecryption
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}
