package cryptox

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// Argon2id work factor. Changing any of these makes every stored
// wrapped key unreadable, so they are fixed.
const (
	ArgonTime    uint32 = 1
	ArgonMemory  uint32 = 64 * 1024 // KiB
	ArgonThreads uint8  = 4

	KeySize  = 32
	SaltSize = 16
)

var (
	masterKeyInfo = []byte("cryptnotes/master-key/v1")
	authKeyInfo   = []byte("cryptnotes/auth-key/v1")
)

// DerivedKeys is the output of one password stretch. MasterKey wraps key
// material and never leaves the client. AuthKey is sent to the server to
// prove knowledge of the password.
type DerivedKeys struct {
	MasterKey []byte
	AuthKey   []byte
}

// Wipe zeroes both keys.
func (k *DerivedKeys) Wipe() {
	if k == nil {
		return
	}
	common.WipeByteArray(k.MasterKey)
	common.WipeByteArray(k.AuthKey)
}

// DeriveKeys stretches password with Argon2id over salt and expands the
// result with HKDF-SHA256 under two distinct labels, so neither output
// reveals the other. It refuses empty salt or password.
func DeriveKeys(password []byte, salt []byte) (*DerivedKeys, error) {
	if len(salt) == 0 {
		return nil, common.Invalid("salt", "must not be empty")
	}
	if len(password) == 0 {
		return nil, common.Invalid("password", "must not be empty")
	}

	stretched := argon2.IDKey(password, salt, ArgonTime, ArgonMemory, ArgonThreads, KeySize)
	defer common.WipeByteArray(stretched)

	master, err := expand(stretched, masterKeyInfo)
	if err != nil {
		return nil, err
	}
	auth, err := expand(stretched, authKeyInfo)
	if err != nil {
		common.WipeByteArray(master)
		return nil, err
	}

	return &DerivedKeys{MasterKey: master, AuthKey: auth}, nil
}

// DeriveMasterKey returns only the wrapping half of DeriveKeys.
func DeriveMasterKey(password []byte, salt []byte) ([]byte, error) {
	keys, err := DeriveKeys(password, salt)
	if err != nil {
		return nil, err
	}
	common.WipeByteArray(keys.AuthKey)
	return keys.MasterKey, nil
}

// DeriveAuthKey returns only the authentication half of DeriveKeys.
func DeriveAuthKey(password []byte, salt []byte) ([]byte, error) {
	keys, err := DeriveKeys(password, salt)
	if err != nil {
		return nil, err
	}
	common.WipeByteArray(keys.MasterKey)
	return keys.AuthKey, nil
}

// MakeVerifier hashes an auth key into the value the server stores.
// The auth key is already high-entropy, so a fast hash is enough here.
func MakeVerifier(authKey []byte) []byte {
	hash := sha256.Sum256(authKey)
	return hash[:]
}

// NewSalt returns a fresh random salt for a new account.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

func expand(secret, info []byte) ([]byte, error) {
	out := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, secret, info), out); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return out, nil
}
