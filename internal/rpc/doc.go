// Package rpc is the wire contract between the cryptnotes CLI and server.
//
// Messages are plain Go structs carried over gRPC by a JSON codec
// (content-subtype "json"); the service descriptor is written by hand.
// Every request type that carries data has a Validate method, and the
// server-side method handlers reject malformed or unknown payloads with
// codes.InvalidArgument before the service layer is reached.
//
// Byte fields are ciphertext, IVs, salts or public keys. Plaintext and
// secret keys never appear in any message.
package rpc
