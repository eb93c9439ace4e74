// Package navguard decides, for every client-side navigation of a single-page
// application, whether the navigation may proceed or must be redirected.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// navguard is the public surface. It exposes [Engine], [Builder], [Config], and value
// types ([Decision], [AuthState], [MetricsSnapshot]). The route table lives in the
// routes sub-package; the decision flow, audit dispatch, and metric storage live under
// internal/ and are never exported. The auth state consulted by the guard is supplied
// by the caller through the [AuthStore] interface; authstore provides the standard
// implementation.
//
// # What this package must NOT do
//
//   - Render views or know anything about components beyond their name.
//   - Own credentials: tokens are read and cleared only through [AuthStore].
//   - Import any sub-package that re-imports navguard (no import cycles).
//
// # Performance contract
//
// Navigate with a ready AuthStore performs no I/O beyond what HandleSessionExpired
// does for denied navigations. The first navigation of a client pays one CheckAuth.
package navguard
