// Package authstore holds the authentication state consulted by the
// navigation guard: whether the state has been loaded, whether a user is
// logged in, and whether the stored token is still valid.
//
// # Concurrency
//
// A [Store] is a single-writer session object. Reads go through [Store.Snapshot]
// under a read lock; every mutation takes the write lock. Overlapping
// [Store.CheckAuth] calls share one in-flight load, so rapid back-to-back
// navigations observe the same result instead of racing independent refreshes.
//
// # What this package must NOT do
//
//   - Decide navigation outcomes; that belongs to navguard.
//   - Refresh or re-issue tokens.
package authstore
