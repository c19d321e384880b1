// Package cli is the interactive cryptnotes client.
//
// It prompts for credentials, unwraps the account keys behind a spinner and
// runs a REPL over the vault. A background watcher wipes the keys once the
// session has been idle for the window reported by the server.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
