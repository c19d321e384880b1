package cryptox

import (
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

// X25519 key sizes. 128-bit security, on par with a 3072-bit RSA modulus.
const (
	PublicKeySize  = 32
	PrivateKeySize = 32

	// WrappedNoteKeySize is the sealed-box length of a note key.
	WrappedNoteKeySize = KeySize + box.AnonymousOverhead
)

var privateKeyAAD = []byte("cryptnotes/private-key/v1")

// KeyPair is a user's long-term X25519 keypair.
type KeyPair struct {
	Public  *[PublicKeySize]byte
	Private *[PrivateKeySize]byte
}

// Wipe zeroes the private half.
func (kp *KeyPair) Wipe() {
	if kp == nil || kp.Private == nil {
		return
	}
	clear(kp.Private[:])
}

// GenerateKeyPair creates the account keypair. Called once at registration.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &KeyPair{Public: pub, Private: priv}, nil
}

// WrapPrivateKey encrypts priv under masterKey. The returned iv is fresh
// for every call.
func WrapPrivateKey(priv *[PrivateKeySize]byte, masterKey []byte) (ciphertext, iv []byte, err error) {
	if priv == nil {
		return nil, nil, common.Invalid("private_key", "missing")
	}
	return seal(masterKey, priv[:], privateKeyAAD)
}

// UnwrapPrivateKey decrypts a wrapped private key. A wrong master key and
// tampered ciphertext or iv all yield ErrDecryption.
func UnwrapPrivateKey(ciphertext, iv, masterKey []byte) (*[PrivateKeySize]byte, error) {
	plain, err := open(masterKey, ciphertext, iv, privateKeyAAD)
	if err != nil {
		return nil, ErrDecryption
	}
	defer common.WipeByteArray(plain)

	if len(plain) != PrivateKeySize {
		return nil, ErrDecryption
	}
	var priv [PrivateKeySize]byte
	copy(priv[:], plain)
	return &priv, nil
}

// PublicFromPrivate recomputes the public key for priv.
func PublicFromPrivate(priv *[PrivateKeySize]byte) (*[PublicKeySize]byte, error) {
	out, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	var pub [PublicKeySize]byte
	copy(pub[:], out)
	return &pub, nil
}

// PublicKeyFromBytes validates and converts a stored public key.
func PublicKeyFromBytes(b []byte) (*[PublicKeySize]byte, error) {
	if len(b) != PublicKeySize {
		return nil, common.Invalid("public_key", fmt.Sprintf("must be %d bytes", PublicKeySize))
	}
	var pub [PublicKeySize]byte
	copy(pub[:], b)
	return &pub, nil
}

// NewNoteKey returns a random symmetric key for note encryption.
func NewNoteKey() []byte {
	return common.GenerateRandByteArray(KeySize)
}

// WrapNoteKey seals noteKey to the account public key (anonymous sealed
// box), so only the holder of the private key can recover it.
func WrapNoteKey(noteKey []byte, pub *[PublicKeySize]byte) ([]byte, error) {
	if len(noteKey) != KeySize {
		return nil, ErrInvalidKey
	}
	if pub == nil {
		return nil, common.Invalid("public_key", "missing")
	}
	wrapped, err := box.SealAnonymous(nil, noteKey, pub, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("seal note key: %w", err)
	}
	return wrapped, nil
}

// UnwrapNoteKey opens a wrapped note key with the account keypair.
func UnwrapNoteKey(wrapped []byte, pub *[PublicKeySize]byte, priv *[PrivateKeySize]byte) ([]byte, error) {
	if pub == nil || priv == nil {
		return nil, ErrDecryption
	}
	key, ok := box.OpenAnonymous(nil, wrapped, pub, priv)
	if !ok || len(key) != KeySize {
		common.WipeByteArray(key)
		return nil, ErrDecryption
	}
	return key, nil
}
