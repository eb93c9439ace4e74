// Package flows contains the navigation flow run by Engine.Navigate.
//
// [RunNavigate] accepts a typed dependency struct over the auth store and
// returns a [NavigateResult] describing the outcome and every side effect it
// triggered. [Decide] is the pure decision table underneath it.
//
// # Architecture boundaries
//
// The flow calls CheckAuth and HandleSessionExpired through function fields.
// It does NOT resolve routes, emit audit events, or count metrics; the Engine
// does that with the result.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import navguard (to avoid import cycles).
//   - Perform I/O directly.
package flows
