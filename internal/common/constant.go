// Package common contains shared constants, sentinel errors and small
// helpers used across cryptnotes client and server components.
package common

import "time"

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on outbound requests.
const AccessTokenHeaderName = "access_token"

// SessionIdleTimeout is the inactivity window after which a session is
// logged out. Server config defaults to it; the client learns the effective
// value from the login response and never keeps its own copy.
const SessionIdleTimeout = 5 * time.Minute
