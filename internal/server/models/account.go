// Package models holds the server's persisted records. All cryptographic
// fields are opaque bytes produced by the client.
package models

import "time"

// Account is a registered user and their wrapped key material.
type Account struct {
	ID                string
	Username          string
	Email             string
	Verifier          []byte
	PublicKey         []byte
	WrappedPrivateKey []byte
	PrivateKeyIV      []byte
	WrappedNoteKey    []byte
	Salt              []byte
	CreatedAt         time.Time
}
