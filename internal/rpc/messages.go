package rpc

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/cryptox"
	"github.com/google/uuid"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 80
	EmailMaxLen    = 120

	// MaxCiphertextSize bounds a single encrypted title or content field.
	MaxCiphertextSize = 1 << 20
	// MinCiphertextSize is the GCM tag; an empty plaintext still produces it.
	MinCiphertextSize = 16
	// MaxWrappedPrivateKeySize leaves room for the tag around a 32-byte key.
	MaxWrappedPrivateKeySize = 256
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Empty is used by calls that need no payload.
type Empty struct{}

type RegisterRequest struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	PublicKey         []byte `json:"public_key"`
	WrappedPrivateKey []byte `json:"wrapped_private_key"`
	PrivateKeyIV      []byte `json:"private_key_iv"`
	WrappedNoteKey    []byte `json:"wrapped_note_key"`
	Salt              []byte `json:"salt"`
	Verifier          []byte `json:"verifier"`
}

func (r *RegisterRequest) Validate() error {
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	checks := []struct {
		field string
		value []byte
		size  int
	}{
		{"public_key", r.PublicKey, cryptox.PublicKeySize},
		{"private_key_iv", r.PrivateKeyIV, cryptox.NonceSize},
		{"wrapped_note_key", r.WrappedNoteKey, cryptox.WrappedNoteKeySize},
		{"salt", r.Salt, cryptox.SaltSize},
		{"verifier", r.Verifier, cryptox.KeySize},
	}
	for _, c := range checks {
		if err := exactSize(c.field, c.value, c.size); err != nil {
			return err
		}
	}
	return boundedSize("wrapped_private_key", r.WrappedPrivateKey, MinCiphertextSize, MaxWrappedPrivateKeySize)
}

type RegisterResponse struct {
	AccountID string `json:"account_id"`
}

type KeyMaterialRequest struct {
	Username string `json:"username"`
}

func (r *KeyMaterialRequest) Validate() error {
	return ValidateUsername(r.Username)
}

// KeyMaterialResponse is returned for every syntactically valid username.
// Unknown usernames get a stable decoy record of the same shape.
type KeyMaterialResponse struct {
	Salt              []byte `json:"salt"`
	PublicKey         []byte `json:"public_key"`
	WrappedPrivateKey []byte `json:"wrapped_private_key"`
	PrivateKeyIV      []byte `json:"private_key_iv"`
	WrappedNoteKey    []byte `json:"wrapped_note_key"`
}

type LoginRequest struct {
	Username string `json:"username"`
	AuthKey  []byte `json:"auth_key"`
}

func (r *LoginRequest) Validate() error {
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	return exactSize("auth_key", r.AuthKey, cryptox.KeySize)
}

type LoginResponse struct {
	AccountID     string    `json:"account_id"`
	AccessToken   string    `json:"access_token"`
	IdleTimeoutMs int64     `json:"idle_timeout_ms"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IdleTimeout converts the server-reported idle window.
func (r *LoginResponse) IdleTimeout() time.Duration {
	return time.Duration(r.IdleTimeoutMs) * time.Millisecond
}

type SessionResponse struct {
	AccountID     string    `json:"account_id"`
	IdleTimeoutMs int64     `json:"idle_timeout_ms"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Note is a stored note as the server sees it: ciphertext only.
type Note struct {
	ID               string    `json:"id"`
	EncryptedTitle   []byte    `json:"encrypted_title"`
	EncryptedContent []byte    `json:"encrypted_content"`
	IV               []byte    `json:"iv"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CreateNoteRequest struct {
	EncryptedTitle   []byte `json:"encrypted_title"`
	EncryptedContent []byte `json:"encrypted_content"`
	IV               []byte `json:"iv"`
}

func (r *CreateNoteRequest) Validate() error {
	return validateNoteFields(r.EncryptedTitle, r.EncryptedContent, r.IV)
}

type UpdateNoteRequest struct {
	ID               string `json:"id"`
	EncryptedTitle   []byte `json:"encrypted_title"`
	EncryptedContent []byte `json:"encrypted_content"`
	IV               []byte `json:"iv"`
}

func (r *UpdateNoteRequest) Validate() error {
	if err := ValidateID(r.ID); err != nil {
		return err
	}
	return validateNoteFields(r.EncryptedTitle, r.EncryptedContent, r.IV)
}

type NoteIDRequest struct {
	ID string `json:"id"`
}

func (r *NoteIDRequest) Validate() error {
	return ValidateID(r.ID)
}

type NoteResponse struct {
	Note Note `json:"note"`
}

type ListNotesResponse struct {
	Notes []Note `json:"notes"`
}

type ExportResponse struct {
	Key   string `json:"key"`
	URL   string `json:"url"`
	Count int    `json:"count"`
}

type PingResponse struct {
	Status string `json:"status"`
}

// ValidateUsername enforces length and charset.
func ValidateUsername(s string) error {
	if len(s) < UsernameMinLen || len(s) > UsernameMaxLen {
		return common.Invalid("username", fmt.Sprintf("must be %d-%d characters", UsernameMinLen, UsernameMaxLen))
	}
	if !usernameRe.MatchString(s) {
		return common.Invalid("username", "may contain only letters, digits, '_', '.' and '-'")
	}
	return nil
}

func ValidateEmail(s string) error {
	if s == "" {
		return common.Invalid("email", "is required")
	}
	if len(s) > EmailMaxLen {
		return common.Invalid("email", fmt.Sprintf("must be at most %d characters", EmailMaxLen))
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t\r\n") {
		return common.Invalid("email", "is not a valid address")
	}
	return nil
}

func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.Invalid("id", "must be a UUID")
	}
	return nil
}

func validateNoteFields(title, content, iv []byte) error {
	if err := boundedSize("encrypted_title", title, MinCiphertextSize, MaxCiphertextSize); err != nil {
		return err
	}
	if err := boundedSize("encrypted_content", content, MinCiphertextSize, MaxCiphertextSize); err != nil {
		return err
	}
	return exactSize("iv", iv, cryptox.NoteIVSize)
}

func exactSize(field string, b []byte, size int) error {
	if len(b) == 0 {
		return common.Invalid(field, "is required")
	}
	if len(b) != size {
		return common.Invalid(field, fmt.Sprintf("must be %d bytes", size))
	}
	return nil
}

func boundedSize(field string, b []byte, min, max int) error {
	if len(b) == 0 {
		return common.Invalid(field, "is required")
	}
	if len(b) < min || len(b) > max {
		return common.Invalid(field, fmt.Sprintf("must be %d-%d bytes", min, max))
	}
	return nil
}
