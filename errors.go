package navguard

import "errors"

var (
	// ErrEngineNotReady is returned by Engine methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrNilAuthStore is returned when Navigate is given no auth store.
	ErrNilAuthStore = errors.New("auth store required")
	// ErrBuilderUsed is returned by a second call to Build.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrLoginRouteMissing is returned when the configured login route is not in the table.
	ErrLoginRouteMissing = errors.New("login route not found in route table")
	// ErrLoginRouteProtected is returned when the login route itself requires auth,
	// which would redirect every logged-out navigation forever.
	ErrLoginRouteProtected = errors.New("login route must not require auth")
	// ErrLandingUnroutable is returned when the landing path resolves to the not-found record.
	ErrLandingUnroutable = errors.New("landing path does not resolve to a route")
)
