// Package cli provides the interactive TaskFlow command-line client.
//
// It wires configuration and the HTTP API client into a REPL. Typical flow:
// register or log in, then list, add and update tasks, and ask the server's
// AI helper for priorities and summaries.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
