package cryptox

import (
	"github.com/dmitrijs2005/cryptnotes/internal/common"
)

// NoteIVSize is the length of a note's stored iv: the title nonce followed
// by the content nonce.
const NoteIVSize = 2 * NonceSize

var (
	titleAAD   = []byte("cryptnotes/note/title/v1")
	contentAAD = []byte("cryptnotes/note/content/v1")
)

// SealedNote is what the server persists for a note.
type SealedNote struct {
	EncryptedTitle   []byte
	EncryptedContent []byte
	IV               []byte
}

// Encrypt seals plaintext under key and returns the ciphertext with its
// fresh iv. Empty plaintext is valid and yields a tag-only ciphertext.
func Encrypt(plaintext, key []byte) (ciphertext, iv []byte, err error) {
	return seal(key, plaintext, nil)
}

// Decrypt opens a ciphertext produced by Encrypt.
func Decrypt(ciphertext, iv, key []byte) ([]byte, error) {
	return open(key, ciphertext, iv, nil)
}

// SealNote encrypts title and content independently, each under its own
// nonce, with the field name bound as associated data.
func SealNote(title, content string, key []byte) (*SealedNote, error) {
	encTitle, titleNonce, err := seal(key, []byte(title), titleAAD)
	if err != nil {
		return nil, err
	}
	encContent, contentNonce, err := seal(key, []byte(content), contentAAD)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, 0, NoteIVSize)
	iv = append(iv, titleNonce...)
	iv = append(iv, contentNonce...)

	return &SealedNote{EncryptedTitle: encTitle, EncryptedContent: encContent, IV: iv}, nil
}

// OpenNote decrypts a SealedNote. Any failure returns ErrDecryption and no
// partial plaintext.
func OpenNote(n *SealedNote, key []byte) (title, content string, err error) {
	if n == nil || len(n.IV) != NoteIVSize {
		return "", "", ErrDecryption
	}

	t, err := open(key, n.EncryptedTitle, n.IV[:NonceSize], titleAAD)
	if err != nil {
		return "", "", ErrDecryption
	}
	c, err := open(key, n.EncryptedContent, n.IV[NonceSize:], contentAAD)
	if err != nil {
		common.WipeByteArray(t)
		return "", "", ErrDecryption
	}

	return string(t), string(c), nil
}
