// Package session persists the credential each client navigates with: the
// access token and its expiry, stored in Redis under the client's ID.
//
// # Binary encoding
//
// Credentials are stored as a compact versioned record. The encoder is
// append-only: new versions add fields but never reinterpret old ones.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Credential] model.
// It does NOT verify tokens or decide whether a session is valid; callers
// inspect the token they load.
//
// # What this package must NOT do
//
//   - Import navguard, authstore, or jwt (no upward imports).
//   - Make navigation decisions.
package session
