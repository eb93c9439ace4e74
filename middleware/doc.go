// Package middleware exposes HTTP adapters that run the navigation guard for
// server-rendered or server-routed single-page applications.
//
// # Adapters
//
//   - [Guard]: assigns a client ID, runs Engine.Navigate for page requests, and
//     answers denied navigations with a 302.
//   - [RequireSession]: 401 for API calls without a valid session.
//   - [WithStore]: attaches the client's auth store without requiring a session.
//   - [FlashNotifier]: turns session-expired notices into a one-shot cookie.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT make
// navigation decisions itself; all of them are delegated to Engine.Navigate.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly.
//   - Access Redis (the auth store handles I/O).
//   - Render views.
package middleware
