// Package client is the gRPC implementation of the client's storage
// facade and authenticator.
//
// GRPCClient keeps the bearer token returned by Login and attaches it to
// every outbound call through a unary interceptor. Status errors are mapped
// back to the sentinel errors of package common, so callers match them with
// errors.Is regardless of transport.
package client
