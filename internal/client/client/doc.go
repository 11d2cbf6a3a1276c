// Package client contains the client-side building blocks for talking to
// the bank.
//
// # Overview
//
// The package provides:
//  1. The API contract the round-up flow depends on (see the Client
//     interface): primary account, account holder, transaction feed,
//     savings goals and transfers into them.
//  2. An HTTP implementation (see HTTPClient). Authentication is not its
//     concern: it is handed an *http.Client whose transport attaches the
//     bearer token and retries once after a 403 (NewAuthenticatedHTTP).
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Non-2xx answers come back as *APIError. 401/403 match
// common.ErrUnauthorized and 404 matches common.ErrNotFound via errors.Is.
// Connection failures wrap ErrUnavailable; a body with success=false
// wraps ErrRejected. Session failures from the transport (for example
// session.ErrSeedRejected) are passed through unchanged.
//
// All operations accept context.Context and are safe for concurrent use.
package client
