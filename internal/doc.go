// Package internal holds code private to navguard.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: the navigation flow and the pure guard decision
//
// # What this package must NOT do
//
//   - Export types that appear in the public navguard API except through
//     aliases declared in the root package.
//   - Be imported by any package outside the navguard module.
package internal
