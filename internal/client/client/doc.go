// Package client is the CuponCode transport layer and local storage
// bootstrap.
//
// # Overview
//
// The package provides:
//  1. A transport contract (see the Bridge interface): one named action plus
//     a payload in, one Result out.
//  2. HTTPBridge, the implementation used against the backend. The envelope
//     is JSON-encoded into the "payload" query parameter of a GET request;
//     the backend only accepts GET because it answers POST with a redirect.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Failures
//
// Call never returns an error. Malformed responses, transport failures and
// server-side session expiry are all reported as a Result with Success set
// to false and a user-facing Error. Expiry additionally clears the local
// session, signals the navigator and sets Result.SessionInvalidated.
//
// Concurrency & Contexts
//
// HTTPBridge is safe for concurrent use. Call honours ctx cancellation both
// while throttled and during the round trip.
package client
