// Package services implements the server's storage facade on top of the
// repositories: account registration and key material lookup, credential
// checks, sliding sessions and owner-scoped note storage. Every value it
// stores is opaque ciphertext or a verifier produced by the client.
package services
