// Package audit implements async event dispatching for navigation decisions.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, func, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: structured record of one guard decision or auth-store side effect.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; the Engine does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on navigation logic.
//   - Import navguard or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package audit
