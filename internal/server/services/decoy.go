package services

import (
	"crypto/sha256"
	"io"

	"github.com/dmitrijs2005/cryptnotes/internal/cryptox"
	"golang.org/x/crypto/hkdf"
)

var decoyInfo = []byte("cryptnotes/decoy-key-material/v1")

// decoyKeyMaterial derives a stable fake record for a username that has no
// account. The same username always gets the same bytes, and the shape
// matches a real record, so the lookup does not reveal existence.
func decoyKeyMaterial(secret []byte, username string) *KeyMaterial {
	r := hkdf.New(sha256.New, secret, []byte(username), decoyInfo)

	read := func(n int) []byte {
		b := make([]byte, n)
		// hkdf only fails past 255*HashLen bytes
		_, _ = io.ReadFull(r, b)
		return b
	}

	return &KeyMaterial{
		Salt:              read(cryptox.SaltSize),
		PublicKey:         read(cryptox.PublicKeySize),
		WrappedPrivateKey: read(cryptox.PrivateKeySize + 16),
		PrivateKeyIV:      read(cryptox.NonceSize),
		WrappedNoteKey:    read(cryptox.WrappedNoteKeySize),
		Verifier:          read(cryptox.KeySize),
	}
}
